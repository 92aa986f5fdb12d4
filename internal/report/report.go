// Package report renders run summaries for the console and log file.
package report

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/justestif/go-spotify-smart-playlists/internal/playcount"
)

// Tracks renders a ranked track table under title.
func Tracks(title string, tracks []playcount.MatchedTrack) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"#", "Artist", "Track", "Plays"})

	for i, t := range tracks {
		tw.AppendRow(table.Row{i + 1, t.Artist, t.Name, strconv.Itoa(t.Playcount)})
	}
	if len(tracks) == 0 {
		tw.AppendRow(table.Row{"", "(none)", "", ""})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 32},
		{Number: 3, WidthMax: 48},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	return tw.Render()
}

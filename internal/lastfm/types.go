package lastfm

import (
	"bytes"
	"encoding/json"
)

// TopTrack is one entry of a user's top tracks chart.
type TopTrack struct {
	Name      string
	Artist    string
	PlayCount int
}

// TopTracksPage is one page of user.getTopTracks.
type TopTracksPage struct {
	Tracks     []TopTrack
	Page       int
	TotalPages int
}

// topTrackEntry is a single track in the user.getTopTracks JSON response.
type topTrackEntry struct {
	Name      string `json:"name"`
	PlayCount int    `json:"playcount,string"`
	Artist    struct {
		Name string `json:"name"`
	} `json:"artist"`
}

// topTrackList accepts both the array form and the single-object form
// Last.fm uses when a page holds exactly one track.
type topTrackList []topTrackEntry

func (l *topTrackList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var one topTrackEntry
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*l = topTrackList{one}
		return nil
	}

	var many []topTrackEntry
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// topTracksResponse is the JSON response for user.getTopTracks.
type topTracksResponse struct {
	TopTracks struct {
		Track topTrackList `json:"track"`
		Attr  struct {
			User       string `json:"user"`
			Page       int    `json:"page,string"`
			TotalPages int    `json:"totalPages,string"`
			Total      int    `json:"total,string"`
		} `json:"@attr"`
	} `json:"toptracks"`
}

package playcount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justestif/go-spotify-smart-playlists/internal/lastfm"
	"github.com/justestif/go-spotify-smart-playlists/internal/library"
)

// mockSource serves canned top-track pages and per-track counts.
type mockSource struct {
	pages      []*lastfm.TopTracksPage
	pageErrs   map[int][]error // errors returned by successive calls for a page
	calls      map[int]int
	counts     map[string]int
	countErr   []error
	countCalls int
}

func (m *mockSource) TopTracks(_ context.Context, _ string, page int) (*lastfm.TopTracksPage, error) {
	if m.calls == nil {
		m.calls = make(map[int]int)
	}
	m.calls[page]++
	if errs := m.pageErrs[page]; m.calls[page] <= len(errs) {
		return nil, errs[m.calls[page]-1]
	}
	return m.pages[page-1], nil
}

func (m *mockSource) TrackPlaycount(_ context.Context, _, artist, track string) (int, error) {
	m.countCalls++
	if m.countCalls <= len(m.countErr) {
		return 0, m.countErr[m.countCalls-1]
	}
	return m.counts[artist+"/"+track], nil
}

func fastRetry() Option {
	return WithRetryPolicy(3, time.Millisecond)
}

func page(n, total int, tracks ...lastfm.TopTrack) *lastfm.TopTracksPage {
	return &lastfm.TopTracksPage{Tracks: tracks, Page: n, TotalPages: total}
}

func TestBuildTable_AllPages(t *testing.T) {
	src := &mockSource{pages: []*lastfm.TopTracksPage{
		page(1, 2, lastfm.TopTrack{Name: "N", Artist: "A", PlayCount: 10}),
		page(2, 2, lastfm.TopTrack{Name: "Other", Artist: "B", PlayCount: 3}),
	}}

	table, err := NewMatcher(src, "someone", fastRetry()).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}

	want := Table{"a|||n": 10, "b|||other": 3}
	if len(table) != len(want) {
		t.Fatalf("BuildTable() = %v, want %v", table, want)
	}
	for k, v := range want {
		if table[k] != v {
			t.Errorf("table[%q] = %d, want %d", k, table[k], v)
		}
	}
}

func TestBuildTable_DuplicateKeyLastWriteWins(t *testing.T) {
	src := &mockSource{pages: []*lastfm.TopTracksPage{
		page(1, 1,
			lastfm.TopTrack{Name: "Song", Artist: "Band", PlayCount: 50},
			lastfm.TopTrack{Name: "SONG", Artist: "band", PlayCount: 4},
		),
	}}

	table, err := NewMatcher(src, "someone", fastRetry()).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if got := table["band|||song"]; got != 4 {
		t.Errorf("table[band|||song] = %d, want 4", got)
	}
}

func TestBuildTable_RetriesRateLimit(t *testing.T) {
	src := &mockSource{
		pages:    []*lastfm.TopTracksPage{page(1, 1, lastfm.TopTrack{Name: "N", Artist: "A", PlayCount: 1})},
		pageErrs: map[int][]error{1: {lastfm.ErrRateLimited, lastfm.ErrRateLimited}},
	}

	table, err := NewMatcher(src, "someone", fastRetry()).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if src.calls[1] != 3 {
		t.Errorf("page 1 fetched %d times, want 3", src.calls[1])
	}
	if table["a|||n"] != 1 {
		t.Errorf("table = %v, want a|||n=1", table)
	}
}

func TestBuildTable_SurfacesErrors(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "rate limit exhausted",
			errs:      []error{lastfm.ErrRateLimited, lastfm.ErrRateLimited, lastfm.ErrRateLimited, lastfm.ErrRateLimited},
			wantErr:   lastfm.ErrRateLimited,
			wantCalls: 4,
		},
		{
			name:      "other errors are not retried",
			errs:      []error{lastfm.ErrInvalidAPIKey},
			wantErr:   lastfm.ErrInvalidAPIKey,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{
				pages:    []*lastfm.TopTracksPage{page(1, 1)},
				pageErrs: map[int][]error{1: tt.errs},
			}

			_, err := NewMatcher(src, "someone", fastRetry()).BuildTable(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildTable() error = %v, want %v", err, tt.wantErr)
			}
			if src.calls[1] != tt.wantCalls {
				t.Errorf("page 1 fetched %d times, want %d", src.calls[1], tt.wantCalls)
			}
		})
	}
}

func TestBuildTable_StopsOnEmptyPage(t *testing.T) {
	src := &mockSource{pages: []*lastfm.TopTracksPage{page(1, 5)}}

	table, err := NewMatcher(src, "someone", fastRetry()).BuildTable(context.Background())
	if err != nil {
		t.Fatalf("BuildTable() error = %v", err)
	}
	if len(table) != 0 {
		t.Errorf("BuildTable() = %v, want empty", table)
	}
	if len(src.calls) != 1 {
		t.Errorf("fetched %d pages, want 1", len(src.calls))
	}
}

func TestMatch(t *testing.T) {
	table := Table{"a|||n": 10}
	records := []library.TrackRecord{
		{URI: "uri2", Name: "N2", Artist: "A2", FuzzyKey: library.FuzzyKey("A2", "N2")},
		{URI: "uri1", Name: "N", Artist: "A", FuzzyKey: library.FuzzyKey("A", "N")},
	}

	matched, missing := Match(records, table)

	want := []MatchedTrack{
		{URI: "uri1", Name: "N", Artist: "A", Playcount: 10},
		{URI: "uri2", Name: "N2", Artist: "A2", Playcount: 0},
	}
	if len(matched) != len(want) {
		t.Fatalf("Match() returned %d tracks, want %d", len(matched), len(want))
	}
	for i := range want {
		if matched[i] != want[i] {
			t.Errorf("matched[%d] = %+v, want %+v", i, matched[i], want[i])
		}
	}
	if missing != 1 {
		t.Errorf("missing = %d, want 1", missing)
	}
}

func TestMatch_Empty(t *testing.T) {
	matched, missing := Match(nil, Table{"a|||n": 1})
	if len(matched) != 0 || missing != 0 {
		t.Errorf("Match(nil) = %v, %d; want empty, 0", matched, missing)
	}
}

func TestTrackPlaycount(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		want      int
		wantErr   error
		wantCalls int
	}{
		{
			name:      "found",
			want:      7,
			wantCalls: 1,
		},
		{
			name:      "retried after rate limit",
			errs:      []error{lastfm.ErrRateLimited},
			want:      7,
			wantCalls: 2,
		},
		{
			name:      "unknown track counts as zero",
			errs:      []error{lastfm.ErrNotFound},
			want:      0,
			wantCalls: 1,
		},
		{
			name:      "invalid key surfaces",
			errs:      []error{lastfm.ErrInvalidAPIKey},
			wantErr:   lastfm.ErrInvalidAPIKey,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &mockSource{counts: map[string]int{"Radiohead/Creep": 7}, countErr: tt.errs}

			got, err := NewMatcher(src, "someone", fastRetry()).TrackPlaycount(context.Background(), "Radiohead", "Creep")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TrackPlaycount() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TrackPlaycount() = %d, want %d", got, tt.want)
			}
			if src.countCalls != tt.wantCalls {
				t.Errorf("made %d calls, want %d", src.countCalls, tt.wantCalls)
			}
		})
	}
}

package library

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justestif/go-spotify-smart-playlists/internal/spotify"
)

// mockCatalog implements Catalog for testing.
type mockCatalog struct {
	saved     []spotify.TrackItem
	playlists map[string][]spotify.TrackItem
	nameErrs  map[string]error
	fetchErrs map[string]error // Ends a playlist's items with an error
	delay     time.Duration

	mu          sync.Mutex
	nameLookups []string
	active      atomic.Int32
	maxActive   atomic.Int32
}

func (m *mockCatalog) track(items []spotify.TrackItem, fetchErr error) iter.Seq2[spotify.TrackItem, error] {
	return func(yield func(spotify.TrackItem, error) bool) {
		n := m.active.Add(1)
		defer m.active.Add(-1)
		for {
			cur := m.maxActive.Load()
			if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(m.delay)

		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if fetchErr != nil {
			yield(spotify.TrackItem{}, fetchErr)
		}
	}
}

func (m *mockCatalog) SavedTracks(context.Context) iter.Seq2[spotify.TrackItem, error] {
	return m.track(m.saved, nil)
}

func (m *mockCatalog) PlaylistTracks(_ context.Context, id string) iter.Seq2[spotify.TrackItem, error] {
	return m.track(m.playlists[id], m.fetchErrs[id])
}

func (m *mockCatalog) PlaylistName(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	m.nameLookups = append(m.nameLookups, id)
	m.mu.Unlock()

	if err, ok := m.nameErrs[id]; ok {
		return "", err
	}
	return "Playlist " + id, nil
}

func item(uri, name, artist, addedAt string) spotify.TrackItem {
	return spotify.TrackItem{
		Track:   &spotify.Track{URI: uri, Name: name, Artists: []string{artist}},
		AddedAt: addedAt,
	}
}

func TestBuild_MergesSourcesWithEarliestDate(t *testing.T) {
	catalog := &mockCatalog{
		saved: []spotify.TrackItem{
			item("t1", "One", "A", "2026-01-10T00:00:00Z"),
			item("t2", "Two", "B", "2026-01-20T00:00:00Z"),
		},
		playlists: map[string][]spotify.TrackItem{
			"p1": {
				item("t1", "One", "A", "2026-01-05T00:00:00Z"),
				{Track: nil, AddedAt: "2026-01-01T00:00:00Z"}, // removed track
			},
			"p2": {
				item("t1", "One", "A", "2026-01-15T00:00:00Z"),
				item("t3", "Three", "C", "2026-01-25T00:00:00Z"),
			},
		},
	}

	result := NewBuilder(catalog).Build(context.Background(), []string{"p1", "p2"})

	if result.Sources != 3 {
		t.Errorf("Sources = %d, want 3", result.Sources)
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %v, want none", result.Failed)
	}
	if result.Library.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", result.Library.Len())
	}

	t1, _ := result.Library.Get("t1")
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !t1.AddedAt.Equal(want) {
		t.Errorf("t1 AddedAt = %v, want %v", t1.AddedAt, want)
	}
}

func TestBuild_FailedSourceDoesNotAbortOthers(t *testing.T) {
	errAPI := errors.New("API error")
	catalog := &mockCatalog{
		saved: []spotify.TrackItem{item("t1", "One", "A", "2026-01-10T00:00:00Z")},
		playlists: map[string][]spotify.TrackItem{
			"bad":  {item("t9", "Nine", "Z", "2026-01-01T00:00:00Z")},
			"good": {item("t2", "Two", "B", "2026-01-02T00:00:00Z")},
		},
		nameErrs: map[string]error{"bad": errAPI},
	}

	result := NewBuilder(catalog).Build(context.Background(), []string{"bad", "good"})

	if len(result.Failed) != 1 {
		t.Fatalf("Failed = %v, want 1 entry", result.Failed)
	}
	if result.Failed[0].Source != "bad" || !errors.Is(result.Failed[0], errAPI) {
		t.Errorf("Failed[0] = %v", result.Failed[0])
	}
	if result.Library.Contains("t9") {
		t.Error("tracks of the failed source should be absent")
	}
	if !result.Library.Contains("t1") || !result.Library.Contains("t2") {
		t.Error("tracks of healthy sources should be present")
	}
}

func TestBuild_PagingErrorRecordsSourceAndKeepsTracks(t *testing.T) {
	errPage := errors.New("page 2 failed")
	catalog := &mockCatalog{
		playlists: map[string][]spotify.TrackItem{
			"partial": {item("t1", "One", "A", "2026-01-01T00:00:00Z")},
			"empty":   nil,
		},
		fetchErrs: map[string]error{"partial": errPage, "empty": errPage},
	}

	result := NewBuilder(catalog).Build(context.Background(), []string{"partial", "empty"})

	if len(result.Failed) != 2 {
		t.Fatalf("Failed = %v, want 2 entries", result.Failed)
	}
	for _, f := range result.Failed {
		if !errors.Is(f, errPage) {
			t.Errorf("Failed entry %v does not wrap the paging error", f)
		}
	}
	if !result.Library.Contains("t1") {
		t.Error("tracks read before the failed page should be kept")
	}
}

func TestBuild_DeduplicatesPlaylistIDs(t *testing.T) {
	catalog := &mockCatalog{playlists: map[string][]spotify.TrackItem{}}

	result := NewBuilder(catalog).Build(context.Background(), []string{"p1", "p1", "p2"})

	if result.Sources != 3 {
		t.Errorf("Sources = %d, want 3 (liked songs + 2 playlists)", result.Sources)
	}
	slices.Sort(catalog.nameLookups)
	if !slices.Equal(catalog.nameLookups, []string{"p1", "p2"}) {
		t.Errorf("name lookups = %v, want [p1 p2]", catalog.nameLookups)
	}
}

func TestBuild_BoundedConcurrency(t *testing.T) {
	catalog := &mockCatalog{
		playlists: map[string][]spotify.TrackItem{},
		delay:     20 * time.Millisecond,
	}
	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}

	NewBuilder(catalog, WithWorkers(2)).Build(context.Background(), ids)

	if got := catalog.maxActive.Load(); got > 2 {
		t.Errorf("max concurrent sources = %d, want <= 2", got)
	}
}

package library

import (
	"cmp"
	"slices"
	"sync"
)

// Library maps track URIs to records. It is safe for concurrent use.
type Library struct {
	mu     sync.Mutex
	tracks map[string]TrackRecord
}

// New returns an empty library.
func New() *Library {
	return &Library{tracks: make(map[string]TrackRecord)}
}

// Merge adds rec to the library. When the URI is already present the stored
// identity fields are kept and AddedAt becomes the earlier of the two dates,
// so the result never depends on merge order.
func (l *Library) Merge(rec TrackRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, ok := l.tracks[rec.URI]
	if !ok {
		l.tracks[rec.URI] = rec
		return
	}

	if rec.AddedAt != nil && (existing.AddedAt == nil || rec.AddedAt.Before(*existing.AddedAt)) {
		existing.AddedAt = rec.AddedAt
		l.tracks[rec.URI] = existing
	}
}

// Get returns the record for uri.
func (l *Library) Get(uri string) (TrackRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.tracks[uri]
	return rec, ok
}

// Contains reports whether uri is in the library.
func (l *Library) Contains(uri string) bool {
	_, ok := l.Get(uri)
	return ok
}

// Len returns the number of distinct tracks.
func (l *Library) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tracks)
}

// Records returns a snapshot of all records ordered by URI.
func (l *Library) Records() []TrackRecord {
	l.mu.Lock()
	records := make([]TrackRecord, 0, len(l.tracks))
	for _, rec := range l.tracks {
		records = append(records, rec)
	}
	l.mu.Unlock()

	slices.SortFunc(records, func(a, b TrackRecord) int {
		return cmp.Compare(a.URI, b.URI)
	})
	return records
}

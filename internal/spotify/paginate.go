package spotify

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
)

// Page sizes are caps imposed by the Web API, not tuning knobs.
const (
	savedTracksPageSize    = 50
	playlistTracksPageSize = 100
	followedArtistsLimit   = 50
	artistAlbumsPageSize   = 50
	albumTracksPageSize    = 50
	playlistsPageSize      = 50
)

// pager describes how to walk one paged collection.
// next advances page in place and returns spotify.ErrNoMorePages after the
// last page.
type pager[P any, T any] struct {
	source string
	first  func(ctx context.Context) (P, error)
	next   func(ctx context.Context, page P) error
	items  func(page P) []T
}

// pages turns a paged collection into a lazy sequence. Pages are requested
// only as the consumer pulls items. A fetch error is logged and yielded once
// with a zero item, ending the sequence after whatever was already yielded.
func pages[P any, T any](ctx context.Context, logger *log.Logger, p pager[P, T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		page, err := p.first(ctx)
		if err != nil {
			logger.Error("fetching first page", "source", p.source, "err", err)
			yield(zero, fmt.Errorf("fetching %s: %w", p.source, err))
			return
		}

		fetched := 1
		for {
			for _, item := range p.items(page) {
				if !yield(item, nil) {
					return
				}
			}

			err := p.next(ctx, page)
			if errors.Is(err, spotify.ErrNoMorePages) {
				return
			}
			if err != nil {
				logger.Error("fetching next page, keeping items collected so far",
					"source", p.source, "pages", fetched, "err", err)
				yield(zero, fmt.Errorf("fetching %s page %d: %w", p.source, fetched+1, err))
				return
			}
			fetched++
		}
	}
}

// paginate is pages for consumers that only want the items. A fetch error
// ends the sequence early; it is logged, never returned.
func paginate[P any, T any](ctx context.Context, logger *log.Logger, p pager[P, T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for item, err := range pages(ctx, logger, p) {
			if err != nil || !yield(item) {
				return
			}
		}
	}
}

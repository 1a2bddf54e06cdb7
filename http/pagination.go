package http

import (
	"context"
	"iter"
)

// PageFetcher fetches the page starting at offset start and reports
// whether the server has more after it.
type PageFetcher[T any] func(ctx context.Context, start int) (items []T, more bool, err error)

// Offsets yields every item of an offset-paginated listing, fetching
// pages on demand. A fetch error is yielded once and ends the sequence.
// An empty page ends it too, whatever the server claims.
func Offsets[T any](ctx context.Context, fetch PageFetcher[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		start := 0
		for {
			items, more, err := fetch(ctx, start)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if !more || len(items) == 0 {
				return
			}
			start += len(items)
		}
	}
}

// CollectOffsets drains Offsets into a slice.
func CollectOffsets[T any](ctx context.Context, fetch PageFetcher[T]) ([]T, error) {
	var all []T
	for item, err := range Offsets(ctx, fetch) {
		if err != nil {
			return nil, err
		}
		all = append(all, item)
	}
	return all, nil
}

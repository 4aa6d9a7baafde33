// Package retrieval adapts internal/transport's raw endpoint calls into the
// paginated, typed generators the fetch pipeline consumes (spec.md §4.4):
// search, attribute definitions, attribute values, float metric points, and
// non-numeric series.
package retrieval

import "iter"

// Page is one batch of results from a paginated endpoint. The continuation
// token stays inside FetchPages and is not exposed on the Page.
type Page[T any] struct {
	Items []T
}

// FetchPages drives a classic fetch/has-more paging loop and exposes it as
// an iter.Seq2 of pages and errors, matching how the rest of this module consumes generator-shaped
// adapters (spec.md §4.4 "Pages<T>"). fetchPage is called with the current
// continuation token (empty string for the first call) and returns a page
// of items plus the token for the next page (empty when exhausted).
func FetchPages[T any](fetchPage func(pageToken string) (items []T, nextPageToken string, err error)) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		token := ""
		for {
			items, next, err := fetchPage(token)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if len(items) > 0 {
				if !yield(Page[T]{Items: items}, nil) {
					return
				}
			}
			if next == "" {
				return
			}
			token = next
		}
	}
}

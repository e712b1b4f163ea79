/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package paginate walks pages of a sorted remote listing until a
// stopping predicate fires or the listing is exhausted.
package paginate

import (
	"context"
	"fmt"
)

// PageFunc fetches one page of a listing. A nextPage of 0 means the
// listing is exhausted, matching go-github's Response.NextPage
// convention.
type PageFunc[T any] func(ctx context.Context, page int) (items []T, nextPage int, err error)

// FetchUntil requests pages in order starting at page 1, accumulating
// items into one flat sequence. Fetching stops when stop returns true
// for the just-fetched page, or when the listing is exhausted. A nil
// stop walks the whole listing.
//
// Any page error aborts the fetch as a whole: a transport failure is
// never reported as a partial result.
func FetchUntil[T any](ctx context.Context, fetch PageFunc[T], stop func(page []T) bool) ([]T, error) {
	var all []T
	for page := 1; ; {
		items, nextPage, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		all = append(all, items...)

		if stop != nil && stop(items) {
			return all, nil
		}
		if nextPage == 0 {
			return all, nil
		}
		page = nextPage
	}
}

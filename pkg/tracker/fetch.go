/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package tracker

import (
	"context"
	"slices"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"

	"github.com/stagehand-bot/stagehand/pkg/checklist"
	"github.com/stagehand-bot/stagehand/pkg/paginate"
)

// fetchPullRequests retrieves metadata for the requested pull request
// numbers by walking the repository's pull request listing in
// descending creation order, 100 per page, stopping once a page
// contains the oldest requested number.
//
// This assumes pull request numbers are monotonically non-decreasing
// with creation time, so everything numbered above the oldest target
// has been collected by the time the stop fires. Requested numbers
// never observed by the end of the listing are silently absent from the
// result; callers must tolerate partial results. A page-level failure
// aborts the whole fetch instead.
func (t *Tracker) fetchPullRequests(ctx context.Context, numbers []int) ([]checklist.PullRequestRecord, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	oldest := slices.Min(numbers)

	fetch := func(ctx context.Context, page int) ([]*github.PullRequest, int, error) {
		opts := &github.PullRequestListOptions{
			State:     "all",
			Sort:      "created",
			Direction: "desc",
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: pageSize,
			},
		}
		var (
			prs  []*github.PullRequest
			next int
		)
		err := t.caller.Do(ctx, "pulls.list", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			prs, resp, err = t.gh.PullRequests.List(ctx, t.owner, t.repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		return prs, next, err
	}
	stop := func(page []*github.PullRequest) bool {
		return slices.ContainsFunc(page, func(pr *github.PullRequest) bool {
			return pr.GetNumber() == oldest
		})
	}

	prs, err := paginate.FetchUntil(ctx, fetch, stop)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}

	records := make([]checklist.PullRequestRecord, 0, len(numbers))
	for _, pr := range prs {
		if !wanted[pr.GetNumber()] {
			continue
		}
		delete(wanted, pr.GetNumber())

		labels := make([]string, 0, len(pr.Labels))
		for _, l := range pr.Labels {
			labels = append(labels, l.GetName())
		}
		records = append(records, checklist.PullRequestRecord{
			Number:   pr.GetNumber(),
			HTMLURL:  pr.GetHTMLURL(),
			Title:    pr.GetTitle(),
			Labels:   labels,
			MergedBy: pr.GetMergedBy().GetLogin(),
		})
	}

	if len(wanted) > 0 {
		missing := make([]int, 0, len(wanted))
		for n := range wanted {
			missing = append(missing, n)
		}
		slices.Sort(missing)
		clog.FromContext(ctx).With("missing", missing).
			Infof("%d requested pull requests not observed in listing window", len(missing))
	}

	return records, nil
}

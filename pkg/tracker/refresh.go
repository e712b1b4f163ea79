/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/stagehand-bot/stagehand/pkg/checklist"
)

// Request carries newly observed release data for one render pass.
type Request struct {
	// Tag is the release version. Generate requires it; Refresh takes
	// the tag from the ticket body and ignores this field.
	Tag string

	// PullRequestURLs are the constituent pull requests observed since
	// the last pass, unioned with the ones already on the ticket.
	PullRequestURLs []string

	VerifiedURLs        []string
	BlockerURLs         []string
	ResolvedBlockerURLs []string
	ResolvedQAURLs      []string
	Checks              checklist.Checks
}

// Result is the outcome of a refresh or generate pass.
type Result struct {
	// Body is the rendered replacement ticket body.
	Body string

	// Assignees are the internal QA verifiers, used to notify and
	// assign them.
	Assignees []string
}

// Refresh parses the ticket body, merges in the newly observed data,
// fetches metadata for every constituent pull request and renders the
// replacement body. On any failure the operation aborts whole: the old
// ticket body stays authoritative and nothing partial is returned.
func (t *Tracker) Refresh(ctx context.Context, ticket *Ticket, req Request) (*Result, error) {
	doc, err := checklist.Parse(ticket.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing ticket #%d: %w", ticket.Number, err)
	}
	return t.render(ctx, mergeInput(doc, req))
}

// Generate renders a checklist for a new release, starting from an
// empty document.
func (t *Tracker) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Tag == "" {
		return nil, errors.New("generate: release tag is required")
	}
	return t.render(ctx, mergeInput(&checklist.Document{Tag: req.Tag}, req))
}

func (t *Tracker) render(ctx context.Context, in checklist.RenderInput) (*Result, error) {
	// Document-derived URLs were validated by Parse, so a bad URL here
	// came in with the request, not from the ticket body.
	numbers, err := entryNumbers(in.PullRequestURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	fetched, err := t.fetchPullRequests(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("fetching pull requests: %w", err)
	}
	in.Fetched = fetched

	body, assignees, err := t.renderer.Render(in)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering checklist: %v", ErrInvalidRequest, err)
	}
	return &Result{Body: body, Assignees: assignees}, nil
}

// mergeInput unions the parsed document with the newly observed data.
// Checkbox state only ever advances: an entry verified or resolved on
// either side stays that way.
func mergeInput(doc *checklist.Document, req Request) checklist.RenderInput {
	in := checklist.RenderInput{
		Tag:            doc.Tag,
		PriorAssignees: make(map[string]string),
		Checks: checklist.Checks{
			TimingDashboard: doc.Checks.TimingDashboard || req.Checks.TimingDashboard,
			Firebase:        doc.Checks.Firebase || req.Checks.Firebase,
			GitHubStatus:    doc.Checks.GitHubStatus || req.Checks.GitHubStatus,
		},
	}

	for _, e := range doc.PullRequests {
		in.PullRequestURLs = append(in.PullRequestURLs, e.URL)
		if e.Verified {
			in.VerifiedURLs = append(in.VerifiedURLs, e.URL)
		}
	}
	for _, e := range doc.InternalQA {
		// QA entries are pull requests too: they go through the same
		// fetch and are partitioned back out by label.
		in.PullRequestURLs = append(in.PullRequestURLs, e.URL)
		if e.Resolved {
			in.ResolvedQAURLs = append(in.ResolvedQAURLs, e.URL)
		}
		if e.Assignee != "" {
			in.PriorAssignees[e.URL] = e.Assignee
		}
	}
	for _, e := range doc.DeployBlockers {
		in.BlockerURLs = append(in.BlockerURLs, e.URL)
		if e.Resolved {
			in.ResolvedBlockerURLs = append(in.ResolvedBlockerURLs, e.URL)
		}
	}

	in.PullRequestURLs = append(in.PullRequestURLs, req.PullRequestURLs...)
	in.VerifiedURLs = append(in.VerifiedURLs, req.VerifiedURLs...)
	in.BlockerURLs = append(in.BlockerURLs, req.BlockerURLs...)
	in.ResolvedBlockerURLs = append(in.ResolvedBlockerURLs, req.ResolvedBlockerURLs...)
	in.ResolvedQAURLs = append(in.ResolvedQAURLs, req.ResolvedQAURLs...)

	return in
}

func entryNumbers(urls []string) ([]int, error) {
	seen := make(map[int]bool, len(urls))
	numbers := make([]int, 0, len(urls))
	for _, u := range urls {
		n, err := checklist.ParseNumber(u)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
	}
	return numbers, nil
}

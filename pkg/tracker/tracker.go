/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package tracker locates and refreshes the staging-deploy tracking
// ticket. There is at most one active ticket per repository, identified
// by a reserved label; the invariant is enforced by lookup, not by
// storage.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v75/github"

	"github.com/stagehand-bot/stagehand/pkg/checklist"
	"github.com/stagehand-bot/stagehand/pkg/ghclient"
	"github.com/stagehand-bot/stagehand/pkg/paginate"
)

const (
	// DefaultLabel marks the active staging-deploy tracking ticket.
	DefaultLabel = "staging deploy"

	pageSize = 100
)

var (
	// ErrNotFound reports that no open tracking ticket carries the
	// reserved label.
	ErrNotFound = errors.New("no open tracking ticket")

	// ErrAmbiguousState reports more than one open tracking ticket.
	// This signals the ticket store is in an inconsistent state; it is
	// surfaced, never retried.
	ErrAmbiguousState = errors.New("multiple open tracking tickets")

	// ErrInvalidRequest reports malformed caller-supplied data, such as
	// an entry URL that does not match the GitHub resource shape. The
	// ticket body itself is not at fault.
	ErrInvalidRequest = errors.New("invalid request data")
)

// Ticket is the tracking issue as observed in the store. Identity is
// the platform-assigned number.
type Ticket struct {
	Title  string
	URL    string
	Number int
	Labels []string
	Body   string
}

// Tracker drives checklist refreshes against one repository.
type Tracker struct {
	gh       *github.Client
	caller   *ghclient.Caller
	owner    string
	repo     string
	label    string
	renderer checklist.Renderer
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLabel overrides the reserved tracking label.
func WithLabel(label string) Option {
	return func(t *Tracker) {
		t.label = label
	}
}

// WithInternalQALabel overrides the label that partitions pull requests
// into the Internal QA section.
func WithInternalQALabel(label string) Option {
	return func(t *Tracker) {
		t.renderer.InternalQALabel = label
	}
}

// New creates a Tracker for owner/repo. The GitHub client and the
// rate-limited caller are constructed once by the process and injected.
func New(gh *github.Client, caller *ghclient.Caller, owner, repo string, opts ...Option) *Tracker {
	t := &Tracker{
		gh:     gh,
		caller: caller,
		owner:  owner,
		repo:   repo,
		label:  DefaultLabel,
		renderer: checklist.Renderer{
			Owner: owner,
			Repo:  repo,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FindActiveTicket returns the single open issue carrying the reserved
// label. Zero matches fail with ErrNotFound, two or more with
// ErrAmbiguousState.
func (t *Tracker) FindActiveTicket(ctx context.Context) (*Ticket, error) {
	fetch := func(ctx context.Context, page int) ([]*github.Issue, int, error) {
		opts := &github.IssueListByRepoOptions{
			State:  "open",
			Labels: []string{t.label},
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: pageSize,
			},
		}
		var (
			issues []*github.Issue
			next   int
		)
		err := t.caller.Do(ctx, "issues.list", func(ctx context.Context) (*github.Response, error) {
			var resp *github.Response
			var err error
			issues, resp, err = t.gh.Issues.ListByRepo(ctx, t.owner, t.repo, opts)
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		return issues, next, err
	}

	all, err := paginate.FetchUntil(ctx, fetch, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tickets with label %q: %w", t.label, err)
	}

	// The issues listing returns pull requests too.
	var matches []*github.Issue
	for _, issue := range all {
		if !issue.IsPullRequest() {
			matches = append(matches, issue)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: label %q in %s/%s", ErrNotFound, t.label, t.owner, t.repo)
	case 1:
	default:
		numbers := make([]int, 0, len(matches))
		for _, issue := range matches {
			numbers = append(numbers, issue.GetNumber())
		}
		return nil, fmt.Errorf("%w: label %q matches %v", ErrAmbiguousState, t.label, numbers)
	}

	issue := matches[0]
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return &Ticket{
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		Number: issue.GetNumber(),
		Labels: labels,
		Body:   issue.GetBody(),
	}, nil
}

// UpdateTicketBody replaces the ticket body in a single update call.
// Last writer wins: there is no optimistic concurrency check against
// concurrent external edits.
func (t *Tracker) UpdateTicketBody(ctx context.Context, number int, body string) error {
	err := t.caller.Do(ctx, "issues.edit", func(ctx context.Context) (*github.Response, error) {
		_, resp, err := t.gh.Issues.Edit(ctx, t.owner, t.repo, number, &github.IssueRequest{
			Body: github.String(body),
		})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("updating ticket #%d: %w", number, err)
	}
	return nil
}

// CreateTicket opens a new tracking issue. The reserved tracking label
// is always applied so FindActiveTicket can locate the ticket; extra
// labels are added alongside it.
func (t *Tracker) CreateTicket(ctx context.Context, title, body string, extraLabels []string) (*Ticket, error) {
	labels := append([]string{t.label}, extraLabels...)
	var created *github.Issue
	err := t.caller.Do(ctx, "issues.create", func(ctx context.Context) (*github.Response, error) {
		var resp *github.Response
		var err error
		created, resp, err = t.gh.Issues.Create(ctx, t.owner, t.repo, &github.IssueRequest{
			Title:  github.String(title),
			Body:   github.String(body),
			Labels: &labels,
		})
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}
	return &Ticket{
		Title:  created.GetTitle(),
		URL:    created.GetHTMLURL(),
		Number: created.GetNumber(),
		Labels: labels,
		Body:   created.GetBody(),
	}, nil
}

// CreateComment posts a comment on the ticket.
func (t *Tracker) CreateComment(ctx context.Context, number int, body string) error {
	err := t.caller.Do(ctx, "issues.comment", func(ctx context.Context) (*github.Response, error) {
		_, resp, err := t.gh.Issues.CreateComment(ctx, t.owner, t.repo, number, &github.IssueComment{
			Body: github.String(body),
		})
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("commenting on ticket #%d: %w", number, err)
	}
	return nil
}

// AddAssignees assigns the given logins to the ticket, used to notify
// internal QA verifiers.
func (t *Tracker) AddAssignees(ctx context.Context, number int, logins []string) error {
	if len(logins) == 0 {
		return nil
	}
	err := t.caller.Do(ctx, "issues.assign", func(ctx context.Context) (*github.Response, error) {
		_, resp, err := t.gh.Issues.AddAssignees(ctx, t.owner, t.repo, number, logins)
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("assigning ticket #%d: %w", number, err)
	}
	return nil
}

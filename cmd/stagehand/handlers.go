/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chainguard-dev/clog"

	"github.com/stagehand-bot/stagehand/pkg/checklist"
	"github.com/stagehand-bot/stagehand/pkg/ghclient"
	"github.com/stagehand-bot/stagehand/pkg/tracker"
)

type checklistRequest struct {
	Tag              string   `json:"tag,omitempty"`
	PullRequests     []string `json:"pull_requests"`
	Verified         []string `json:"verified,omitempty"`
	Blockers         []string `json:"blockers,omitempty"`
	ResolvedBlockers []string `json:"resolved_blockers,omitempty"`
	ResolvedQA       []string `json:"resolved_internal_qa,omitempty"`
	Checks           struct {
		TimingDashboard bool `json:"timing_dashboard"`
		Firebase        bool `json:"firebase"`
		GitHubStatus    bool `json:"github_status"`
	} `json:"checks"`

	// Apply writes the rendered body back to the ticket and assigns
	// the internal QA verifiers. Without it the handler is a dry run.
	Apply bool `json:"apply,omitempty"`
}

type checklistResponse struct {
	Number    int      `json:"number,omitempty"`
	Body      string   `json:"body"`
	Assignees []string `json:"assignees,omitempty"`
}

func (cr checklistRequest) toRequest() tracker.Request {
	return tracker.Request{
		Tag:                 cr.Tag,
		PullRequestURLs:     cr.PullRequests,
		VerifiedURLs:        cr.Verified,
		BlockerURLs:         cr.Blockers,
		ResolvedBlockerURLs: cr.ResolvedBlockers,
		ResolvedQAURLs:      cr.ResolvedQA,
		Checks: checklist.Checks{
			TimingDashboard: cr.Checks.TimingDashboard,
			Firebase:        cr.Checks.Firebase,
			GitHubStatus:    cr.Checks.GitHubStatus,
		},
	}
}

func handleRefresh(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := clog.FromContext(ctx)

		var req checklistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
			return
		}

		ticket, err := t.FindActiveTicket(ctx)
		if err != nil {
			writeError(w, log, err)
			return
		}

		res, err := t.Refresh(ctx, ticket, req.toRequest())
		if err != nil {
			writeError(w, log, err)
			return
		}

		if req.Apply {
			if err := t.UpdateTicketBody(ctx, ticket.Number, res.Body); err != nil {
				writeError(w, log, err)
				return
			}
			if err := t.AddAssignees(ctx, ticket.Number, res.Assignees); err != nil {
				writeError(w, log, err)
				return
			}
		}

		writeJSON(w, log, checklistResponse{
			Number:    ticket.Number,
			Body:      res.Body,
			Assignees: res.Assignees,
		})
	}
}

func handleGenerate(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := clog.FromContext(ctx)

		var req checklistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
			return
		}

		res, err := t.Generate(ctx, req.toRequest())
		if err != nil {
			writeError(w, log, err)
			return
		}

		resp := checklistResponse{Body: res.Body, Assignees: res.Assignees}
		if req.Apply {
			ticket, err := t.CreateTicket(ctx,
				fmt.Sprintf("Staging Deploy %s", req.Tag),
				res.Body,
				nil)
			if err != nil {
				writeError(w, log, err)
				return
			}
			if err := t.AddAssignees(ctx, ticket.Number, res.Assignees); err != nil {
				writeError(w, log, err)
				return
			}
			resp.Number = ticket.Number
		}

		writeJSON(w, log, resp)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Fatal classes
// abort the operation; the prior ticket body stays authoritative.
func writeError(w http.ResponseWriter, log *clog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, tracker.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrAmbiguousState):
		status = http.StatusConflict
	case errors.Is(err, checklist.ErrMalformedTicket):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ghclient.ErrRateLimitExceeded), errors.Is(err, ghclient.ErrAbuseDetected):
		status = http.StatusServiceUnavailable
	}
	log.Errorf("request failed: %v", err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, log *clog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

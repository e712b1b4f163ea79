/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package checklist parses and renders the staging-deploy tracking
// ticket body. The body is a semi-structured text document: a release
// version header, up to three checklist sections, three verification
// checkboxes and a footer. Parse and Render agree byte-for-byte on the
// wire format so a rendered document round-trips through Parse.
package checklist

// Document is the parsed form of a tracking ticket body. It is
// transient: every refresh cycle parses a fresh snapshot of the body
// and renders a replacement, nothing is persisted independently.
type Document struct {
	// Tag is the release version, MAJOR.MINOR.PATCH with an optional
	// -BUILD component.
	Tag string

	// PullRequests are the regular entries of the "pull requests:"
	// section, unique by number, ascending.
	PullRequests []PREntry

	// DeployBlockers are the entries of the "Deploy Blockers:" section.
	// An entry may reference an issue or a pull request.
	DeployBlockers []IssueEntry

	// InternalQA are the entries of the "Internal QA:" section.
	InternalQA []QAEntry

	Checks Checks
}

// PREntry is a pull request awaiting verification.
type PREntry struct {
	URL      string
	Number   int
	Verified bool
}

// IssueEntry is a deploy blocker, either an issue or a pull request.
type IssueEntry struct {
	URL      string
	Number   int
	Resolved bool
}

// QAEntry is a pull request tracked for internal verification, with
// the verifier derived from the merge actor when first rendered and
// read back from the @mention suffix on re-parse.
type QAEntry struct {
	URL      string
	Number   int
	Resolved bool
	Assignee string
}

// Checks are the three release verification checkboxes.
type Checks struct {
	TimingDashboard bool
	Firebase        bool
	GitHubStatus    bool
}

// PullRequestRecord is the subset of fetched pull request metadata the
// renderer classifies on.
type PullRequestRecord struct {
	Number  int
	HTMLURL string
	Title   string
	Labels  []string

	// MergedBy is the login of the merge actor, empty if the pull
	// request has not been merged.
	MergedBy string
}

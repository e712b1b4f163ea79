/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

const defaultInternalQALabel = "internal qa"

// Renderer produces the canonical tracking ticket body. Render is a
// pure function of its input: lists are explicitly sorted ascending by
// number and deduplicated, so the output is deterministic regardless of
// input order.
type Renderer struct {
	// Owner and Repo anchor the compare link in the header.
	Owner string
	Repo  string

	// InternalQALabel marks pull requests tracked in the Internal QA
	// section. Defaults to "internal qa"; matched case-insensitively.
	InternalQALabel string
}

// RenderInput carries the merged data for one render pass.
type RenderInput struct {
	Tag string

	// PullRequestURLs is the full set of constituent pull requests.
	// Internal-QA-labeled ones are partitioned out of the main list.
	PullRequestURLs []string

	// VerifiedURLs marks main-list entries already verified. Pull
	// requests whose title carries a [No QA] marker are treated as
	// verified regardless.
	VerifiedURLs []string

	BlockerURLs         []string
	ResolvedBlockerURLs []string
	ResolvedQAURLs      []string

	// PriorAssignees maps internal QA URLs to previously recorded
	// verifiers, used when the fetched record has no merge actor.
	PriorAssignees map[string]string

	Checks Checks

	// Fetched is the pull request metadata used for classification.
	Fetched []PullRequestRecord
}

type numbered struct {
	url    string
	number int
}

// Render produces the ticket body and the list of internal QA
// assignees, in ascending order of their pull request numbers.
func (r Renderer) Render(in RenderInput) (string, []string, error) {
	qaLabel := r.InternalQALabel
	if qaLabel == "" {
		qaLabel = defaultInternalQALabel
	}

	// Partition fetched records: internal QA membership plus the no-QA
	// exemption derived from titles.
	qaActor := make(map[string]string)
	verified := make(map[string]bool)
	for _, rec := range in.Fetched {
		if slices.ContainsFunc(rec.Labels, func(l string) bool { return strings.EqualFold(l, qaLabel) }) {
			qaActor[rec.HTMLURL] = rec.MergedBy
		}
		if noQAPattern.MatchString(rec.Title) {
			verified[rec.HTMLURL] = true
		}
	}
	for _, u := range in.VerifiedURLs {
		verified[u] = true
	}

	qaList, err := sortByNumber(keys(qaActor))
	if err != nil {
		return "", nil, fmt.Errorf("internal QA list: %w", err)
	}
	qaNumbers := make(map[int]bool, len(qaList))
	for _, e := range qaList {
		qaNumbers[e.number] = true
	}

	var mainURLs []string
	for _, u := range in.PullRequestURLs {
		if _, ok := qaActor[u]; !ok {
			mainURLs = append(mainURLs, u)
		}
	}
	mainList, err := sortByNumber(mainURLs)
	if err != nil {
		return "", nil, fmt.Errorf("pull request list: %w", err)
	}
	// A pull request is either a regular entry or an internal QA entry,
	// never both.
	mainList = slices.DeleteFunc(mainList, func(e numbered) bool { return qaNumbers[e.number] })

	blockerList, err := sortByNumber(in.BlockerURLs)
	if err != nil {
		return "", nil, fmt.Errorf("deploy blocker list: %w", err)
	}

	resolvedBlockers := toSet(in.ResolvedBlockerURLs)
	resolvedQA := toSet(in.ResolvedQAURLs)

	var b strings.Builder
	fmt.Fprintf(&b, "**Release Version:** `%s`%s", in.Tag, eol)
	fmt.Fprintf(&b, "**Compare:** https://github.com/%s/%s/compare/v%s...main%s", r.Owner, r.Repo, in.Tag, eol)
	b.WriteString(eol)

	if len(mainList) > 0 {
		b.WriteString(headerPullRequests + eol)
		for _, e := range mainList {
			fmt.Fprintf(&b, "- [%s] %s%s", box(verified[e.url]), e.url, eol)
		}
		b.WriteString(eol)
	}

	var assignees []string
	if len(qaList) > 0 {
		b.WriteString(headerInternalQA + eol)
		for _, e := range qaList {
			assignee := qaActor[e.url]
			if assignee == "" {
				assignee = in.PriorAssignees[e.url]
			}
			if assignee == "" {
				fmt.Fprintf(&b, "- [%s] %s%s", box(resolvedQA[e.url]), e.url, eol)
			} else {
				fmt.Fprintf(&b, "- [%s] %s - @%s%s", box(resolvedQA[e.url]), e.url, assignee, eol)
				if !slices.Contains(assignees, assignee) {
					assignees = append(assignees, assignee)
				}
			}
		}
		b.WriteString(eol)
	}

	if len(blockerList) > 0 {
		b.WriteString(headerDeployBlockers + eol)
		for _, e := range blockerList {
			fmt.Fprintf(&b, "- [%s] %s%s", box(resolvedBlockers[e.url]), e.url, eol)
		}
		b.WriteString(eol)
	}

	fmt.Fprintf(&b, "- [%s] %s%s", box(in.Checks.TimingDashboard), lineTimingDashboard, eol)
	fmt.Fprintf(&b, "- [%s] %s%s", box(in.Checks.Firebase), lineFirebase, eol)
	fmt.Fprintf(&b, "- [%s] %s%s", box(in.Checks.GitHubStatus), lineGitHubStatus, eol)
	b.WriteString(eol)
	b.WriteString(footer + eol)

	return b.String(), assignees, nil
}

func box(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}

// sortByNumber resolves URLs to numbers, sorts ascending and collapses
// duplicate numbers to one entry.
func sortByNumber(urls []string) ([]numbered, error) {
	entries := make([]numbered, 0, len(urls))
	seen := make(map[int]bool, len(urls))
	for _, u := range urls {
		n, err := ParseNumber(u)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		entries = append(entries, numbered{url: u, number: n})
	}
	slices.SortFunc(entries, func(a, b numbered) int { return cmp.Compare(a.number, b.number) })
	return entries, nil
}

func toSet(urls []string) map[string]bool {
	s := make(map[string]bool, len(urls))
	for _, u := range urls {
		s[u] = true
	}
	return s
}

func keys(m map[string]string) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}

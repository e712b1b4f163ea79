/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTicket reports a ticket body that cannot be parsed into a
// Document. The mandatory release tag being absent is the common cause;
// an entry whose URL does not match the expected GitHub resource shape
// also qualifies.
var ErrMalformedTicket = errors.New("malformed tracking ticket")

// Parse converts a tracking ticket body into a Document.
//
// The body is a sequence of optional named sections, each introduced by
// a fixed heading and terminated by a blank line. A missing section
// yields an empty list, not an error. The release tag is the first
// version token found anywhere in the body, independent of any section.
func Parse(body string) (*Document, error) {
	tag := tagPattern.FindString(body)
	if tag == "" {
		return nil, fmt.Errorf("%w: no release version found", ErrMalformedTicket)
	}

	lines := splitLines(body)
	doc := &Document{Tag: tag}

	for _, e := range scanSection(lines, headerPullRequests) {
		number, err := ParseNumber(e.url)
		if err != nil {
			return nil, fmt.Errorf("%w: pull request entry: %v", ErrMalformedTicket, err)
		}
		doc.PullRequests = append(doc.PullRequests, PREntry{
			URL:      e.url,
			Number:   number,
			Verified: e.checked,
		})
	}

	for _, e := range scanSection(lines, headerInternalQA) {
		number, err := ParseNumber(e.url)
		if err != nil {
			return nil, fmt.Errorf("%w: internal QA entry: %v", ErrMalformedTicket, err)
		}
		doc.InternalQA = append(doc.InternalQA, QAEntry{
			URL:      e.url,
			Number:   number,
			Resolved: e.checked,
			Assignee: e.assignee,
		})
	}

	for _, e := range scanSection(lines, headerDeployBlockers) {
		number, err := ParseNumber(e.url)
		if err != nil {
			return nil, fmt.Errorf("%w: deploy blocker entry: %v", ErrMalformedTicket, err)
		}
		doc.DeployBlockers = append(doc.DeployBlockers, IssueEntry{
			URL:      e.url,
			Number:   number,
			Resolved: e.checked,
		})
	}

	doc.Checks = scanChecks(lines)

	return doc, nil
}

type entryLine struct {
	checked  bool
	url      string
	assignee string
}

// scanSection locates the block introduced by heading and returns its
// checklist lines. The block runs from the line after the heading to
// the next blank line (or end of body). Lines within the block that do
// not look like checklist entries are skipped.
func scanSection(lines []string, heading string) []entryLine {
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == heading {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var entries []entryLine
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, entryLine{
			checked:  m[1] == "x",
			url:      m[2],
			assignee: m[3],
		})
	}
	return entries
}

// scanChecks detects the three verification checkboxes by the presence
// of a checked line containing the recognizable substring anywhere in
// the body.
func scanChecks(lines []string) Checks {
	var checks Checks
	for _, line := range lines {
		if !strings.HasPrefix(line, "- [x] ") {
			continue
		}
		switch {
		case strings.Contains(line, checkTimingDashboard):
			checks.TimingDashboard = true
		case strings.Contains(line, checkFirebase):
			checks.Firebase = true
		case strings.Contains(line, checkGitHubStatus):
			checks.GitHubStatus = true
		}
	}
	return checks
}

// splitLines splits on newlines, tolerating both CRLF and bare LF.
func splitLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

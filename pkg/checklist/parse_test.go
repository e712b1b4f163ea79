/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    *Document
		wantErr bool
	}{
		{
			name: "release version and one unchecked pull request",
			body: "**Release Version:** `1.2.3-4`\r\n" +
				"\r\n" +
				"pull requests:\r\n" +
				"- [ ] https://github.com/Org/Repo/pull/100\r\n" +
				"\r\n",
			want: &Document{
				Tag: "1.2.3-4",
				PullRequests: []PREntry{
					{URL: "https://github.com/Org/Repo/pull/100", Number: 100, Verified: false},
				},
			},
		},
		{
			name: "all sections",
			body: "**Release Version:** `2.0.0`\r\n" +
				"\r\n" +
				"pull requests:\r\n" +
				"- [x] https://github.com/Org/Repo/pull/10\r\n" +
				"- [ ] https://github.com/Org/Repo/pull/11\r\n" +
				"\r\n" +
				"Internal QA:\r\n" +
				"- [x] https://github.com/Org/Repo/pull/12 - @alice\r\n" +
				"\r\n" +
				"Deploy Blockers:\r\n" +
				"- [ ] https://github.com/Org/Repo/issues/5\r\n" +
				"\r\n",
			want: &Document{
				Tag: "2.0.0",
				PullRequests: []PREntry{
					{URL: "https://github.com/Org/Repo/pull/10", Number: 10, Verified: true},
					{URL: "https://github.com/Org/Repo/pull/11", Number: 11, Verified: false},
				},
				InternalQA: []QAEntry{
					{URL: "https://github.com/Org/Repo/pull/12", Number: 12, Resolved: true, Assignee: "alice"},
				},
				DeployBlockers: []IssueEntry{
					{URL: "https://github.com/Org/Repo/issues/5", Number: 5, Resolved: false},
				},
			},
		},
		{
			name: "missing sections yield empty lists",
			body: "Deploying 3.1.4 today.\r\n",
			want: &Document{Tag: "3.1.4"},
		},
		{
			name: "verification checkboxes",
			body: "**Release Version:** `1.0.0`\r\n" +
				"\r\n" +
				"- [x] Verified the [timing dashboard](https://metrics.stagehand.dev/d/staging-timing) shows no regressions\r\n" +
				"- [ ] Verified no new crash clusters in [Firebase](https://console.firebase.google.com/)\r\n" +
				"- [x] Verified [GitHub status](https://www.githubstatus.com/) is all green\r\n",
			want: &Document{
				Tag:    "1.0.0",
				Checks: Checks{TimingDashboard: true, Firebase: false, GitHubStatus: true},
			},
		},
		{
			name: "bare LF line endings tolerated",
			body: "**Release Version:** `1.2.3`\n\npull requests:\n- [x] https://github.com/Org/Repo/pull/7\n\n",
			want: &Document{
				Tag: "1.2.3",
				PullRequests: []PREntry{
					{URL: "https://github.com/Org/Repo/pull/7", Number: 7, Verified: true},
				},
			},
		},
		{
			name:    "no release version",
			body:    "pull requests:\r\n- [ ] https://github.com/Org/Repo/pull/100\r\n",
			wantErr: true,
		},
		{
			name:    "entry with malformed URL",
			body:    "**Release Version:** `1.0.0`\r\n\r\npull requests:\r\n- [ ] https://example.com/nope\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.body)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedTicket) {
					t.Fatalf("Parse() error = %v, want ErrMalformedTicket", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTagIsGlobal(t *testing.T) {
	// The tag scan is not section-scoped: the first version token
	// anywhere in the body wins.
	body := "Rolling out soon.\r\n\r\nTarget: 5.6.7-8 (see thread)\r\n"
	doc, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Tag != "5.6.7-8" {
		t.Errorf("Tag = %q, want %q", doc.Tag, "5.6.7-8")
	}
}

func TestParseSectionStopsAtBlankLine(t *testing.T) {
	body := "**Release Version:** `1.0.0`\r\n" +
		"\r\n" +
		"pull requests:\r\n" +
		"- [ ] https://github.com/Org/Repo/pull/1\r\n" +
		"\r\n" +
		"- [ ] https://github.com/Org/Repo/pull/2\r\n"
	doc, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.PullRequests) != 1 {
		t.Errorf("got %d pull requests, want 1 (section ends at blank line)", len(doc.PullRequests))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		uri     string
		want    int
		wantErr bool
	}{
		{uri: "https://github.com/Org/Repo/pull/123", want: 123},
		{uri: "https://github.com/Org/Repo/issues/9", want: 9},
		{uri: "https://example.com/Org/Repo/pull/123", wantErr: true},
		{uri: "https://github.com/Org/Repo/commit/abc", wantErr: true},
		{uri: "https://github.com/Org/Repo/pull/abc", wantErr: true},
		{uri: "https://github.com/Org/Repo", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseNumber(%q) = %d, want error", tt.uri, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNumber(%q) error = %v", tt.uri, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.uri, got, tt.want)
		}
	}
}

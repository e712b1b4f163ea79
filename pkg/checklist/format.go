/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import "regexp"

// Wire format of the tracking ticket body. Parse and Render both key
// off these values; changing any of them breaks round-tripping of
// tickets rendered with the old format.
const (
	headerPullRequests   = "pull requests:"
	headerInternalQA     = "Internal QA:"
	headerDeployBlockers = "Deploy Blockers:"

	// Substrings identifying the three verification checkboxes. Parse
	// looks for a checked line containing one of these anywhere in the
	// body.
	checkTimingDashboard = "timing dashboard"
	checkFirebase        = "Firebase"
	checkGitHubStatus    = "GitHub status"

	lineTimingDashboard = "Verified the [timing dashboard](https://metrics.stagehand.dev/d/staging-timing) shows no regressions"
	lineFirebase        = "Verified no new crash clusters in [Firebase](https://console.firebase.google.com/)"
	lineGitHubStatus    = "Verified [GitHub status](https://www.githubstatus.com/) is all green"

	footer = "cc @stagehand-bot/release-drivers"

	// The ticket body uses CRLF line endings.
	eol = "\r\n"
)

var (
	// tagPattern matches the first release version token anywhere in
	// the body: MAJOR.MINOR.PATCH with an optional -BUILD suffix.
	tagPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:-\d+)?`)

	// entryPattern matches one checklist line. The trailing " - @name"
	// group is only meaningful in the Internal QA section.
	entryPattern = regexp.MustCompile(`^- \[( |x)\] (\S+)(?: - @(\S+))?$`)

	// noQAPattern matches pull request titles exempt from verification.
	noQAPattern = regexp.MustCompile(`(?i)\[no ?qa\]`)
)

/*
Copyright 2026 Stagehand Authors
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseNumber extracts the issue or pull request number from a GitHub
// resource URL.
//
// Expected formats:
//   - https://github.com/org/repo/issues/123
//   - https://github.com/org/repo/pull/123
func ParseNumber(uri string) (int, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}

	if parsed.Host != "github.com" {
		return 0, fmt.Errorf("invalid host: %s (expected github.com)", parsed.Host)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid path format: %s", parsed.Path)
	}

	switch parts[2] {
	case "issues", "pull":
	default:
		return 0, fmt.Errorf("unknown resource type: %s", parts[2])
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, fmt.Errorf("invalid resource number: %s", parts[3])
	}
	return number, nil
}

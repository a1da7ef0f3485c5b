// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package submission

import (
	"fmt"
	"strings"
)

// TrackPrefix is the required prefix of every track URI.
const TrackPrefix = "spotify:track:"

// Rule names a verification rule.
type Rule string

const (
	RuleLength       Rule = "length"
	RuleDuplicate    Rule = "duplicate_track"
	RuleDuplicatePID Rule = "duplicate_pid"
	RuleTrackFormat  Rule = "track_format"
	RuleTeamInfo     Rule = "team_info"
	RuleExpectedPID  Rule = "missing_pid"
)

// Issue is one rule violation.
type Issue struct {
	Line    int    `json:"line"`
	PID     string `json:"pid"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// VerifyReport lists every violation found in a submission.
type VerifyReport struct {
	Rows   int     `json:"rows"`
	Issues []Issue `json:"issues"`
}

// OK reports whether the submission passed every rule.
func (r *VerifyReport) OK() bool {
	return len(r.Issues) == 0
}

// Count returns the number of issues breaking rule.
func (r *VerifyReport) Count(rule Rule) int {
	n := 0
	for _, is := range r.Issues {
		if is.Rule == rule {
			n++
		}
	}
	return n
}

// VerifyOptions configures Verify.
type VerifyOptions struct {
	// K is the required number of tracks per row.
	K int
	// ExpectedPIDs, when set, must each appear in the submission.
	ExpectedPIDs []string
	// RequireTeam flags a missing team_info row.
	RequireTeam bool
}

// Verify checks a submission against the challenge rules: exactly K tracks
// per row, no repeated track within a row, no repeated pid, and every track
// URI carrying TrackPrefix.
func Verify(sub *Submission, opts VerifyOptions) *VerifyReport {
	report := &VerifyReport{Rows: len(sub.Rows)}
	add := func(row Row, rule Rule, format string, args ...interface{}) {
		report.Issues = append(report.Issues, Issue{
			Line:    row.Line,
			PID:     row.PID,
			Rule:    rule,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if opts.RequireTeam && sub.Team.Name == "" {
		report.Issues = append(report.Issues, Issue{Rule: RuleTeamInfo, Message: "team_info row missing or without a team name"})
	}

	pids := make(map[string]int, len(sub.Rows))
	for _, row := range sub.Rows {
		if opts.K > 0 && len(row.Tracks) != opts.K {
			add(row, RuleLength, "pid %s has %d tracks, want %d", row.PID, len(row.Tracks), opts.K)
		}

		seen := make(map[string]struct{}, len(row.Tracks))
		dup := 0
		bad := 0
		for _, t := range row.Tracks {
			if _, ok := seen[t]; ok {
				dup++
			}
			seen[t] = struct{}{}
			if !strings.HasPrefix(t, TrackPrefix) {
				bad++
			}
		}
		if dup > 0 {
			add(row, RuleDuplicate, "pid %s repeats %d tracks", row.PID, dup)
		}
		if bad > 0 {
			add(row, RuleTrackFormat, "pid %s has %d tracks without the %s prefix", row.PID, bad, TrackPrefix)
		}

		if first, ok := pids[row.PID]; ok {
			add(row, RuleDuplicatePID, "pid %s already appears on line %d", row.PID, first)
		} else {
			pids[row.PID] = row.Line
		}
	}

	for _, pid := range opts.ExpectedPIDs {
		if _, ok := pids[pid]; !ok {
			report.Issues = append(report.Issues, Issue{
				PID:     pid,
				Rule:    RuleExpectedPID,
				Message: fmt.Sprintf("pid %s has no row", pid),
			})
		}
	}

	return report
}

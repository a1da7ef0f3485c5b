// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package submission

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mpdrec/internal/recommend"
)

func tracks(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%s%d", TrackPrefix, prefix, i)
	}
	return out
}

func TestWriter_Layout(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Team{Name: "baseline", Email: "team@example.com"})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.Write("1000", []string{"spotify:track:a", "spotify:track:b"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "team_info,baseline,team@example.com\n\n1000,spotify:track:a,spotify:track:b\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if w.Rows() != 1 {
		t.Errorf("Rows() = %d, want 1", w.Rows())
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "submission.csv")
	recs := []recommend.Recommendation{
		{PID: "1", Tracks: tracks("x", 3)},
		{PID: "2", Tracks: tracks("y", 3)},
	}
	n, err := WriteFile(path, Team{Name: "t", Email: "e@x"}, recs)
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if n != 2 {
		t.Errorf("WriteFile() = %d rows, want 2", n)
	}

	sub, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if sub.Team.Name != "t" || sub.Team.Email != "e@x" {
		t.Errorf("Team = %+v", sub.Team)
	}
	if len(sub.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(sub.Rows))
	}
	if sub.Rows[1].PID != "2" || sub.Rows[1].Tracks[2] != TrackPrefix+"y2" {
		t.Errorf("Rows[1] = %+v", sub.Rows[1])
	}
	if sub.Rows[0].Line != 3 {
		t.Errorf("Rows[0].Line = %d, want 3", sub.Rows[0].Line)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the submission", len(entries))
	}
}

func TestRead_SkipsHeaderAndBlankRows(t *testing.T) {
	in := "team_info,main,me@x\n\n\n5, spotify:track:a ,spotify:track:b\n,\n6\n"
	sub, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(sub.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2: %+v", len(sub.Rows), sub.Rows)
	}
	if got := sub.Rows[0].Tracks[0]; got != "spotify:track:a" {
		t.Errorf("track not trimmed: %q", got)
	}
	if len(sub.Rows[1].Tracks) != 0 {
		t.Errorf("pid-only row tracks = %v", sub.Rows[1].Tracks)
	}

	preds := sub.Predictions()
	if len(preds) != 2 || preds[0].PID != "5" {
		t.Errorf("Predictions() = %+v", preds)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "none.csv"))
	if !errors.Is(err, ErrMissingSubmission) {
		t.Errorf("ReadFile() error = %v, want ErrMissingSubmission", err)
	}
}

func TestVerify(t *testing.T) {
	good := tracks("g", 5)
	dup := append(tracks("d", 4), TrackPrefix+"d0")
	badPrefix := append(tracks("b", 4), "track:b4")

	tests := []struct {
		name  string
		rows  []Row
		opts  VerifyOptions
		rules map[Rule]int
	}{
		{
			name:  "valid",
			rows:  []Row{{Line: 3, PID: "1", Tracks: good}},
			opts:  VerifyOptions{K: 5},
			rules: map[Rule]int{},
		},
		{
			name:  "short row",
			rows:  []Row{{Line: 3, PID: "1", Tracks: good[:4]}},
			opts:  VerifyOptions{K: 5},
			rules: map[Rule]int{RuleLength: 1},
		},
		{
			name:  "duplicate track",
			rows:  []Row{{Line: 3, PID: "1", Tracks: dup}},
			opts:  VerifyOptions{K: 5},
			rules: map[Rule]int{RuleDuplicate: 1},
		},
		{
			name:  "bad prefix",
			rows:  []Row{{Line: 3, PID: "1", Tracks: badPrefix}},
			opts:  VerifyOptions{K: 5},
			rules: map[Rule]int{RuleTrackFormat: 1},
		},
		{
			name:  "duplicate pid",
			rows:  []Row{{Line: 3, PID: "1", Tracks: good}, {Line: 4, PID: "1", Tracks: good}},
			opts:  VerifyOptions{K: 5},
			rules: map[Rule]int{RuleDuplicatePID: 1},
		},
		{
			name:  "missing expected pid",
			rows:  []Row{{Line: 3, PID: "1", Tracks: good}},
			opts:  VerifyOptions{K: 5, ExpectedPIDs: []string{"1", "2"}},
			rules: map[Rule]int{RuleExpectedPID: 1},
		},
		{
			name:  "missing team",
			rows:  []Row{{Line: 3, PID: "1", Tracks: good}},
			opts:  VerifyOptions{K: 5, RequireTeam: true},
			rules: map[Rule]int{RuleTeamInfo: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Verify(&Submission{Rows: tt.rows}, tt.opts)

			total := 0
			for rule, want := range tt.rules {
				if got := report.Count(rule); got != want {
					t.Errorf("Count(%s) = %d, want %d", rule, got, want)
				}
				total += want
			}
			if len(report.Issues) != total {
				t.Errorf("issues = %+v, want %d", report.Issues, total)
			}
			if report.OK() != (total == 0) {
				t.Errorf("OK() = %v", report.OK())
			}
		})
	}
}

func TestVerify_IssueCarriesLine(t *testing.T) {
	sub := &Submission{Rows: []Row{{Line: 7, PID: "9", Tracks: tracks("a", 2)}}}
	report := Verify(sub, VerifyOptions{K: 3})
	if len(report.Issues) != 1 {
		t.Fatalf("issues = %+v", report.Issues)
	}
	if is := report.Issues[0]; is.Line != 7 || is.PID != "9" {
		t.Errorf("issue = %+v, want line 7 pid 9", is)
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "run.json")
	in := &RunMetadata{
		RunID:               "abc",
		Team:                "baseline",
		Method:              MethodPopularity,
		PlaylistsProcessed:  10,
		RecsPerPlaylist:     500,
		CandidatePool:       2000,
		ExecutionTimeSecond: 1.5,
		GeneratedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FilesUsed:           map[string]string{"test_input": "test_input_playlists.json"},
	}
	if err := WriteMetadata(path, in); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}
	out, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}
	if out.Method != MethodPopularity || out.PlaylistsProcessed != 10 || !out.GeneratedAt.Equal(in.GeneratedAt) {
		t.Errorf("ReadMetadata() = %+v", out)
	}
	if out.FilesUsed["test_input"] != "test_input_playlists.json" {
		t.Errorf("FilesUsed = %v", out.FilesUsed)
	}
}

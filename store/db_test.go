package store

import (
	"path/filepath"
	"testing"
	"time"

	"ndb-probe/runner"
)

func useTempDB(t *testing.T) {
	t.Helper()
	SetDBPath(filepath.Join(t.TempDir(), "probe-test.db"))
	t.Cleanup(func() { SetDBPath("") })
}

func sampleReport() *runner.Report {
	started := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	return &runner.Report{
		Mode:          "scenarios",
		ServerCommand: "node dist/index.js",
		StartedAt:     started,
		FinishedAt:    started.Add(3 * time.Second),
		Results: []runner.Result{
			{Seq: 1, Name: "list tools", Outcome: runner.OutcomePass, Detail: "found 4 tools", Duration: 120 * time.Millisecond},
			{Seq: 2, Name: "call ndb_list_databases", Outcome: runner.OutcomeWarn, Detail: "empty content in tool result", Duration: 80 * time.Millisecond},
			{Seq: 3, Name: "call ndb_list_clusters", Outcome: runner.OutcomePass, Detail: "result present", Duration: 60 * time.Millisecond},
			{Seq: 4, Name: "error handling for unknown tool", Outcome: runner.OutcomeFail, Detail: "no response from server", Duration: 10 * time.Millisecond},
		},
	}
}

func TestSaveAndListRuns(t *testing.T) {
	useTempDB(t)

	db, err := InitDatabase()
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	runID, err := SaveRun(db, sampleReport())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if runID == 0 {
		t.Fatal("SaveRun() returned run id 0")
	}

	runs, err := ListRuns(db, 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.Mode != "scenarios" {
		t.Errorf("Mode = %q", run.Mode)
	}
	if run.Passed != 2 || run.Failed != 1 || run.Warned != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", run.Passed, run.Failed, run.Warned)
	}
	if run.StartedAt != "2026-08-23T12:00:00Z" {
		t.Errorf("StartedAt = %q", run.StartedAt)
	}
}

func TestListResultsKeepsSuiteOrder(t *testing.T) {
	useTempDB(t)

	db, err := InitDatabase()
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	runID, err := SaveRun(db, sampleReport())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	results, err := ListResults(db, runID)
	if err != nil {
		t.Fatalf("ListResults() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	for i, r := range results {
		if r.Seq != i+1 {
			t.Errorf("results[%d].Seq = %d, want %d", i, r.Seq, i+1)
		}
	}
	if results[0].DurationMs != 120 {
		t.Errorf("DurationMs = %d, want 120", results[0].DurationMs)
	}
	if results[3].Outcome != "fail" {
		t.Errorf("Outcome = %q, want fail", results[3].Outcome)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	useTempDB(t)

	db, err := InitDatabase()
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	first, err := SaveRun(db, sampleReport())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	second, err := SaveRun(db, sampleReport())
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if second <= first {
		t.Fatalf("run ids not increasing: %d then %d", first, second)
	}

	runs, err := ListRuns(db, 1)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != second {
		t.Errorf("ListRuns(1) = %+v, want newest run %d", runs, second)
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in        string
		want      OutputFormat
		expectErr bool
	}{
		{in: "", want: FormatTable},
		{in: "table", want: FormatTable},
		{in: "JSON", want: FormatJSON},
		{in: " yaml ", want: FormatYAML},
		{in: "xml", expectErr: true},
	}

	for _, tc := range cases {
		got, err := ParseOutputFormat(tc.in)
		if tc.expectErr {
			if err == nil {
				t.Errorf("ParseOutputFormat(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOutputFormat(%q) error = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package store

import (
	"database/sql"
	"fmt"
)

// RunRow is one stored run as rendered by the history command.
type RunRow struct {
	ID            int64  `json:"id" yaml:"id"`
	Mode          string `json:"mode" yaml:"mode"`
	ServerCommand string `json:"server_command" yaml:"server_command"`
	StartedAt     string `json:"started_at" yaml:"started_at"`
	FinishedAt    string `json:"finished_at" yaml:"finished_at"`
	Interrupted   bool   `json:"interrupted" yaml:"interrupted"`
	Passed        int    `json:"passed" yaml:"passed"`
	Failed        int    `json:"failed" yaml:"failed"`
	Warned        int    `json:"warned" yaml:"warned"`
}

// ResultRow is one stored scenario result.
type ResultRow struct {
	Seq        int    `json:"seq" yaml:"seq"`
	Scenario   string `json:"scenario" yaml:"scenario"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Detail     string `json:"detail" yaml:"detail"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// ListRuns returns the most recent runs, newest first.
func ListRuns(db *sql.DB, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, mode, server_command, started_at, finished_at, interrupted, passed, failed, warned
		FROM probe_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRow
	for rows.Next() {
		var r RunRow
		var serverCommand, startedAt, finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Mode, &serverCommand, &startedAt, &finishedAt, &r.Interrupted, &r.Passed, &r.Failed, &r.Warned); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.ServerCommand = serverCommand.String
		r.StartedAt = startedAt.String
		r.FinishedAt = finishedAt.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// ListResults returns the scenario results of one run in suite order.
func ListResults(db *sql.DB, runID int64) ([]ResultRow, error) {
	rows, err := db.Query(`
		SELECT seq, scenario, outcome, detail, duration_ms
		FROM probe_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []ResultRow
	for rows.Next() {
		var r ResultRow
		var detail sql.NullString
		if err := rows.Scan(&r.Seq, &r.Scenario, &r.Outcome, &detail, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		r.Detail = detail.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// ViewRuns renders stored runs in the requested format.
func ViewRuns(db *sql.DB, limit int, opts ViewOptions) error {
	runs, err := ListRuns(db, limit)
	if err != nil {
		return err
	}
	return renderByFormat(opts.formatOrDefault(), func() error {
		fmt.Println("ID\tMode\tStarted\tPass\tFail\tWarn\tServer Command")
		fmt.Println("--\t----\t-------\t----\t----\t----\t--------------")
		for _, r := range runs {
			fmt.Printf("%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.Mode, r.StartedAt, r.Passed, r.Failed, r.Warned, r.ServerCommand)
		}
		return nil
	}, runs)
}

// ViewResults renders the scenario results of one run in the requested format.
func ViewResults(db *sql.DB, runID int64, opts ViewOptions) error {
	results, err := ListResults(db, runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no results stored for run %d", runID)
	}
	return renderByFormat(opts.formatOrDefault(), func() error {
		fmt.Printf("Run: %d\n", runID)
		fmt.Println("Seq\tScenario\tOutcome\tDuration\tDetail")
		fmt.Println("---\t--------\t-------\t--------\t------")
		for _, r := range results {
			fmt.Printf("%d\t%s\t%s\t%dms\t%s\n",
				r.Seq, r.Scenario, r.Outcome, r.DurationMs, firstLine(r.Detail))
		}
		return nil
	}, results)
}

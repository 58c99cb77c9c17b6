package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ndb-probe/runner"
)

const (
	// Database configuration
	DBFileName         = "ndb-probe.db"
	sqliteMaxVariables = 999
)

// DBPath is the runtime-configured SQLite file path. If empty, DBFileName is used.
var DBPath string

// SetDBPath sets a custom SQLite file path. Empty resets to default.
func SetDBPath(path string) {
	DBPath = path
}

func dbPath() string {
	if DBPath != "" {
		return DBPath
	}
	return DBFileName
}

// InitDatabase creates and initializes the SQLite database with required tables
func InitDatabase() (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates all required database tables if they don't exist
func createTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS probe_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			server_command TEXT,
			started_at TEXT,
			finished_at TEXT,
			interrupted BOOLEAN,
			passed INTEGER,
			failed INTEGER,
			warned INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS probe_results (
			run_id INTEGER,
			seq INTEGER,
			scenario TEXT,
			outcome TEXT,
			detail TEXT,
			duration_ms INTEGER,
			PRIMARY KEY (run_id, seq)
		)`,
	}

	for _, query := range tables {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// SaveRun persists one run report and its per-scenario results. It returns
// the new run id.
func SaveRun(db *sql.DB, report *runner.Report) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO probe_runs (mode, server_command, started_at, finished_at, interrupted, passed, failed, warned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Mode,
		report.ServerCommand,
		formatTime(report.StartedAt),
		formatTime(report.FinishedAt),
		report.Interrupted,
		report.Passed(),
		report.Failed(),
		report.Warned(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to store run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve run id: %w", err)
	}

	rows := make([][]any, 0, len(report.Results))
	for _, r := range report.Results {
		rows = append(rows, []any{
			runID, r.Seq, r.Name, string(r.Outcome), r.Detail, r.Duration.Milliseconds(),
		})
	}
	columns := []string{"run_id", "seq", "scenario", "outcome", "detail", "duration_ms"}
	if err := insertBatch(db, "probe_results", columns, rows); err != nil {
		return 0, err
	}

	return runID, nil
}

func insertBatch(db *sql.DB, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	columnCount := len(columns)
	if columnCount == 0 {
		return fmt.Errorf("no columns provided for %s", table)
	}
	if columnCount > sqliteMaxVariables {
		return fmt.Errorf("column count %d exceeds SQLite limit %d for %s", columnCount, sqliteMaxVariables, table)
	}

	values := make([]string, columnCount)
	for i := range values {
		values[i] = "?"
	}
	plHolder := "(" + strings.Join(values, ",") + ")"
	batchSize := sqliteMaxVariables / columnCount
	if batchSize == 0 {
		batchSize = 1
	}

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		placeholders := make([]string, 0, end-start)
		args := make([]any, 0, columnCount*(end-start))

		for _, row := range rows[start:end] {
			if len(row) != columnCount {
				return fmt.Errorf("expected %d values for %s insert, got %d", columnCount, table, len(row))
			}
			placeholders = append(placeholders, plHolder)
			args = append(args, row...)
		}

		query := fmt.Sprintf(
			"INSERT OR REPLACE INTO %s(%s) VALUES %s",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ","),
		)
		if _, err := db.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return nil
}

// formatTime renders a timestamp, handling the zero value.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

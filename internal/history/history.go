package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/model"
	"github.com/DennisUnimib/tigrosImagesUploadToGCS/internal/progress"
)

// FileName is the ledger database file inside the history directory.
const FileName = "history.db"

// timeLayout is fixed width so that start times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultDir returns the per-user directory holding the ledger.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, "imgupload")
}

// Entry is one recorded run.
type Entry struct {
	ID     int64           `json:"id"`
	Source string          `json:"source"` // database.collection
	Bucket string          `json:"bucket"`
	Report progress.Report `json:"report"`

	// Error is set for runs that aborted. Their counts are zero.
	Error string `json:"error,omitempty"`
}

// OK reports whether the run completed.
func (e Entry) OK() bool {
	return e.Error == ""
}

// Ledger is the SQLite-backed run history.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger in dir.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Ledger{db: db, path: path}
	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create history tables: %w", err)
	}
	return l, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		source TEXT NOT NULL,
		bucket TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		batches INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		pending INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	`
	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// Record appends e and returns its id.
func (l *Ledger) Record(ctx context.Context, e Entry) (int64, error) {
	r := e.Report
	res, err := l.db.ExecContext(ctx, `
	INSERT INTO runs (started, elapsed_ms, source, bucket, dry_run, records, batches,
		total, success, skipped, failed, pending, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Started.UTC().Format(timeLayout),
		r.Elapsed.Milliseconds(),
		e.Source,
		e.Bucket,
		r.DryRun,
		r.Records,
		r.Batches,
		r.Total,
		r.Success,
		r.Skipped,
		r.Failed,
		r.Pending,
		e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit runs, newest first. A limit of 0 returns all runs.
func (l *Ledger) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
	SELECT id, started, elapsed_ms, source, bucket, dry_run, records, batches,
		total, success, skipped, failed, pending, error
	FROM runs
	ORDER BY started DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			started   string
			elapsedMS int64
			c         model.Counts
		)
		if err := rows.Scan(&e.ID, &started, &elapsedMS, &e.Source, &e.Bucket, &e.Report.DryRun,
			&e.Report.Records, &e.Report.Batches,
			&c.Total, &c.Success, &c.Skipped, &c.Failed, &c.Pending, &e.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		t, err := time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parse start time of run %d: %w", e.ID, err)
		}
		e.Report.Started = t
		e.Report.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		e.Report.Counts = c

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return entries, nil
}

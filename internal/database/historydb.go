package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/hopcrawl/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "hopcrawl.db"

// HistoryDB provides SQLite-based storage for finished crawl runs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so a batch can save runs while
	// history is being read.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	// Foreign keys are enabled per connection so deletes cascade.
	// The busy timeout lets concurrent batch saves wait for the writer lock.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		hop_budget INTEGER NOT NULL,
		hops INTEGER NOT NULL,
		reason TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_start_url ON runs(start_url);

	CREATE TABLE IF NOT EXISTS visits (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		redirected INTEGER NOT NULL DEFAULT 0,
		content_type TEXT,
		title TEXT,
		next_link TEXT,
		content_hash TEXT,
		bytes_scanned INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_visits_url ON visits(url);

	CREATE TABLE IF NOT EXISTS failures (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		code INTEGER,
		message TEXT,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores run with its visits and failures in one transaction and
// sets run.ID to the new identifier.
func (h *HistoryDB) SaveRun(ctx context.Context, run *model.Run) (err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, hop_budget, hops, reason, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.StartURL,
		run.HopBudget,
		run.Hops,
		run.Reason.String(),
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}

	for _, v := range run.Visits {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO visits (run_id, seq, url, status_code, redirected, content_type, title, next_link, content_hash, bytes_scanned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id, v.Seq, v.URL, v.StatusCode, v.Redirected, v.ContentType,
			v.Title, v.NextLink, v.ContentHash, v.BytesScanned,
		)
		if err != nil {
			return fmt.Errorf("failed to insert visit %d: %w", v.Seq, err)
		}
	}

	for i, f := range run.Failures {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO failures (run_id, position, url, kind, code, message)
		VALUES (?, ?, ?, ?, ?, ?)
		`,
			id, i, f.URL, f.Kind.String(), f.Code, f.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return nil
}

// GetRun retrieves a run with its visits and failures.
// It returns ErrRunNotFound when no run has the ID.
func (h *HistoryDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	run, err := scanRun(h.db.QueryRowContext(ctx, `
	SELECT id, start_url, hop_budget, hops, reason, started_at, finished_at
	FROM runs WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if run.Visits, err = h.visits(ctx, id); err != nil {
		return nil, err
	}
	if run.Failures, err = h.failures(ctx, id); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first, each with its visits and
// failures. A limit of zero or less returns every run.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	query := `SELECT id FROM runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	// Close before the per-run queries; the pool has a single connection.
	rows.Close()

	runs := make([]*model.Run, 0, len(ids))
	for _, id := range ids {
		run, err := h.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun removes a run and its visits and failures.
func (h *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	result, err := h.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// CountVisits returns how many recorded visits fetched url across all runs.
func (h *HistoryDB) CountVisits(ctx context.Context, url string) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

func scanRun(row *sql.Row) (*model.Run, error) {
	var (
		run               model.Run
		reason            string
		started, finished string
	)
	if err := row.Scan(&run.ID, &run.StartURL, &run.HopBudget, &run.Hops, &reason, &started, &finished); err != nil {
		return nil, err
	}

	parsed, err := model.ParseReason(reason)
	if err != nil {
		return nil, err
	}
	run.Reason = parsed
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	return &run, nil
}

func (h *HistoryDB) visits(ctx context.Context, runID int64) ([]model.Visit, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT seq, url, status_code, redirected, content_type, title, next_link, content_hash, bytes_scanned
	FROM visits WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	visits := []model.Visit{}
	for rows.Next() {
		var (
			v                                  model.Visit
			contentType, title, nextLink, hash sql.NullString
		)
		if err := rows.Scan(&v.Seq, &v.URL, &v.StatusCode, &v.Redirected,
			&contentType, &title, &nextLink, &hash, &v.BytesScanned); err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		v.ContentType = contentType.String
		v.Title = title.String
		v.NextLink = nextLink.String
		v.ContentHash = hash.String
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (h *HistoryDB) failures(ctx context.Context, runID int64) ([]model.Failure, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT url, kind, code, message
	FROM failures WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	failures := []model.Failure{}
	for rows.Next() {
		var (
			f       model.Failure
			kind    string
			code    sql.NullInt64
			message sql.NullString
		)
		if err := rows.Scan(&f.URL, &kind, &code, &message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		if f.Kind, err = model.ParseFailureKind(kind); err != nil {
			return nil, err
		}
		f.Code = int(code.Int64)
		f.Message = message.String
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

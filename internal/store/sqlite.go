package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/probelabs/probe-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	business_name TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	scan_type     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	results       TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateScan(ctx context.Context, scan model.Scan) (*model.Scan, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (business_name, website, email, scan_type, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		scan.BusinessName, scan.Website, scan.Email, string(scan.Tier), string(scan.Status), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last insert id")
	}

	scan.ID = id
	scan.CreatedAt = now
	return &scan, nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, id int64) (*model.Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_name, website, email, scan_type, status, results, created_at, completed_at FROM scans WHERE id = ?`,
		id,
	)
	return scanScan(row)
}

func (s *SQLiteStore) UpdateScanStatus(ctx context.Context, id int64, status model.ScanStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scan status %d", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) UpdateScanTier(ctx context.Context, id int64, tier model.ScanTier) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET scan_type = ? WHERE id = ?`,
		string(tier), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update scan tier %d", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) CompleteScan(ctx context.Context, id int64, results json.RawMessage, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, results = ?, completed_at = ? WHERE id = ?`,
		string(model.StatusCompleted), string(results), completedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete scan %d", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) FailScan(ctx context.Context, id int64, completedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, results = NULL, completed_at = ? WHERE id = ?`,
		string(model.StatusFailed), completedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail scan %d", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, business_name, website, email, scan_type, status, results, created_at, completed_at FROM scans WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Tier != "" {
		query += ` AND scan_type = ?`
		args = append(args, string(filter.Tier))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	if !filter.CreatedBefore.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, filter.CreatedBefore.UTC())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		sc, err := scanScan(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *sc)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScan(row scannable) (*model.Scan, error) {
	var sc model.Scan
	var tier, status string
	var results sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(&sc.ID, &sc.BusinessName, &sc.Website, &sc.Email, &tier, &status, &results, &sc.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan row")
	}

	sc.Tier = model.ScanTier(tier)
	sc.Status = model.ScanStatus(status)
	if results.Valid {
		sc.Results = json.RawMessage(results.String)
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		sc.CompletedAt = &t
	}
	return &sc, nil
}

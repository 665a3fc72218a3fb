package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/probelabs/probe-api/internal/db"
	"github.com/probelabs/probe-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_scan":        `INSERT INTO scans (business_name, website, email, scan_type, status, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
	"get_scan":           `SELECT id, business_name, website, email, scan_type, status, results, created_at, completed_at FROM scans WHERE id = $1`,
	"update_scan_status": `UPDATE scans SET status = $1 WHERE id = $2`,
	"update_scan_tier":   `UPDATE scans SET scan_type = $1 WHERE id = $2`,
	"complete_scan":      `UPDATE scans SET status = $1, results = $2, completed_at = $3 WHERE id = $4`,
	"fail_scan":          `UPDATE scans SET status = $1, results = NULL, completed_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	business_name TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	scan_type     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	results       JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateScan(ctx context.Context, scan model.Scan) (*model.Scan, error) {
	now := time.Now().UTC()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO scans (business_name, website, email, scan_type, status, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		scan.BusinessName, scan.Website, scan.Email, string(scan.Tier), string(scan.Status), now,
	).Scan(&scan.ID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}

	scan.CreatedAt = now
	return &scan, nil
}

func (s *PostgresStore) GetScan(ctx context.Context, id int64) (*model.Scan, error) {
	var sc model.Scan
	var tier, status string
	var results []byte
	var completedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, business_name, website, email, scan_type, status, results, created_at, completed_at FROM scans WHERE id = $1`,
		id,
	).Scan(&sc.ID, &sc.BusinessName, &sc.Website, &sc.Email, &tier, &status, &results, &sc.CreatedAt, &completedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scan %d", id)
	}

	sc.Tier = model.ScanTier(tier)
	sc.Status = model.ScanStatus(status)
	if len(results) > 0 {
		sc.Results = json.RawMessage(results)
	}
	sc.CompletedAt = completedAt
	return &sc, nil
}

func (s *PostgresStore) UpdateScanStatus(ctx context.Context, id int64, status model.ScanStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scan status %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

func (s *PostgresStore) UpdateScanTier(ctx context.Context, id int64, tier model.ScanTier) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET scan_type = $1 WHERE id = $2`,
		string(tier), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update scan tier %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

func (s *PostgresStore) CompleteScan(ctx context.Context, id int64, results json.RawMessage, completedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, results = $2, completed_at = $3 WHERE id = $4`,
		string(model.StatusCompleted), []byte(results), completedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete scan %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

func (s *PostgresStore) FailScan(ctx context.Context, id int64, completedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, results = NULL, completed_at = $2 WHERE id = $3`,
		string(model.StatusFailed), completedAt.UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail scan %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "id %d", id)
	}
	return nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, business_name, website, email, scan_type, status, results, created_at, completed_at FROM scans WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.Tier != "" {
		query += ` AND scan_type = ` + arg(string(filter.Tier))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ` + arg(filter.CreatedAfter.UTC())
	}
	if !filter.CreatedBefore.IsZero() {
		query += ` AND created_at < ` + arg(filter.CreatedBefore.UTC())
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		var sc model.Scan
		var tier, status string
		var results []byte
		var completedAt *time.Time
		if err := rows.Scan(&sc.ID, &sc.BusinessName, &sc.Website, &sc.Email, &tier, &status, &results, &sc.CreatedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		sc.Tier = model.ScanTier(tier)
		sc.Status = model.ScanStatus(status)
		if len(results) > 0 {
			sc.Results = json.RawMessage(results)
		}
		sc.CompletedAt = completedAt
		scans = append(scans, sc)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

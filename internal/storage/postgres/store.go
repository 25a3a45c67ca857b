// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table names.
type Config struct {
	DSN             string
	RecordsTable    string
	EntitiesTable   string
	RefreshLogTable string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type dbConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists mirrored records, reference entities and refresh progress in
// Postgres. It implements mirror.Store, mirror.EntityStore and progress.Sink.
type Store struct {
	pool       dbConn
	records    string
	entities   string
	refreshLog string
}

// New creates a Postgres-backed Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return newStore(pool, cfg)
}

// NewWithPool constructs a Store from an existing pool (primarily for testing).
func NewWithPool(pool dbConn, cfg Config) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newStore(pool, cfg)
}

func newStore(pool dbConn, cfg Config) (*Store, error) {
	s := &Store{
		pool:       pool,
		records:    tableOrDefault(cfg.RecordsTable, "records"),
		entities:   tableOrDefault(cfg.EntitiesTable, "entities"),
		refreshLog: tableOrDefault(cfg.RefreshLogTable, "refresh_log"),
	}
	for _, table := range []string{s.records, s.entities, s.refreshLog} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return s, nil
}

func tableOrDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the mirror tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	code TEXT NOT NULL,
	publish_date TEXT NOT NULL DEFAULT '',
	disclosure_type TEXT NOT NULL DEFAULT '',
	year TEXT NOT NULL DEFAULT '',
	period TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	related_entities TEXT NOT NULL DEFAULT '',
	explanation TEXT NOT NULL DEFAULT '',
	explanation_summary TEXT
)`, s.records),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	province TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	tax_no TEXT NOT NULL DEFAULT '',
	reg_no TEXT NOT NULL DEFAULT '',
	scope TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	sector TEXT NOT NULL DEFAULT ''
)`, s.entities),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id UUID NOT NULL,
	seq BIGINT NOT NULL,
	record_id BIGINT NOT NULL,
	attempts INT NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, seq)
)`, s.refreshLog),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &mirror.StorageError{Op: "ensure_schema", Err: err}
		}
	}
	return nil
}

const recordColumns = `id, code, publish_date, disclosure_type, year, period, summary, related_entities, explanation, explanation_summary`

// Upsert removes any existing record with the same id and inserts the new one
// inside a single transaction. Splitting delete and insert across transactions
// would let a crash leave the id absent, so both run or neither does.
func (s *Store) Upsert(ctx context.Context, rec *mirror.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &mirror.StorageError{Op: "upsert", ID: rec.ID, Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.records),
		rec.ID,
	); err != nil {
		return &mirror.StorageError{Op: "upsert", ID: rec.ID, Err: err}
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, s.records, recordColumns),
		rec.ID,
		rec.Code,
		rec.PublishDate,
		rec.DisclosureType,
		rec.Year,
		rec.Period,
		rec.Summary,
		rec.RelatedEntities,
		rec.Explanation,
		rec.ExplanationSummary,
	); err != nil {
		return &mirror.StorageError{Op: "upsert", ID: rec.ID, Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &mirror.StorageError{Op: "upsert", ID: rec.ID, Err: err}
	}
	return nil
}

// MaxID returns the highest stored id and its publish date, or mirror.ErrEmpty.
func (s *Store) MaxID(ctx context.Context) (mirror.Frontier, error) {
	var front mirror.Frontier
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, publish_date FROM %s ORDER BY id DESC LIMIT 1`, s.records),
	).Scan(&front.ID, &front.PublishDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return mirror.Frontier{}, mirror.ErrEmpty
	}
	if err != nil {
		return mirror.Frontier{}, &mirror.StorageError{Op: "max_id", Err: err}
	}
	return front, nil
}

// Stats returns the min/max/count of stored ids, or mirror.ErrEmpty.
func (s *Store) Stats(ctx context.Context) (mirror.RangeStats, error) {
	var stats mirror.RangeStats
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COALESCE(MIN(id), 0), COALESCE(MAX(id), 0), COUNT(*) FROM %s`, s.records),
	).Scan(&stats.MinID, &stats.MaxID, &stats.Count)
	if err != nil {
		return mirror.RangeStats{}, &mirror.StorageError{Op: "stats", Err: err}
	}
	if stats.Count == 0 {
		return mirror.RangeStats{}, mirror.ErrEmpty
	}
	return stats, nil
}

// GetByID returns a single record or mirror.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (*mirror.Record, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, recordColumns, s.records),
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, &mirror.StorageError{Op: "get_by_id", ID: id, Err: err}
	}
	return rec, nil
}

// mutableColumns is the closed set of fields UpdateField may touch.
var mutableColumns = map[mirror.Field]string{
	mirror.FieldExplanationSummary: "explanation_summary",
}

// UpdateField partially updates one mutable field of an existing record.
func (s *Store) UpdateField(ctx context.Context, id int64, field mirror.Field, value string) error {
	column, ok := mutableColumns[field]
	if !ok {
		return &mirror.StorageError{Op: "update_field", ID: id, Err: fmt.Errorf("field %q is not updatable", field)}
	}
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, s.records, column),
		value, id,
	)
	if err != nil {
		return &mirror.StorageError{Op: "update_field", ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return mirror.ErrNotFound
	}
	return nil
}

// IDsInRange returns the ordered ids present in the closed interval [low, high].
func (s *Store) IDsInRange(ctx context.Context, low, high int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id BETWEEN $1 AND $2 ORDER BY id`, s.records),
		low, high,
	)
	if err != nil {
		return nil, &mirror.StorageError{Op: "ids_in_range", Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &mirror.StorageError{Op: "ids_in_range", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &mirror.StorageError{Op: "ids_in_range", Err: err}
	}
	return ids, nil
}

// QueryMissingSummary returns up to limit records not yet enriched,
// most-recent-id first.
func (s *Store) QueryMissingSummary(ctx context.Context, limit int) ([]mirror.Record, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE explanation_summary IS NULL ORDER BY id DESC LIMIT $1`, recordColumns, s.records),
		limit,
	)
	if err != nil {
		return nil, &mirror.StorageError{Op: "query_missing_summary", Err: err}
	}
	defer rows.Close()
	return collectRecords(rows, "query_missing_summary")
}

// RandomRecords returns up to n randomly chosen records for spot checks.
func (s *Store) RandomRecords(ctx context.Context, n int) ([]mirror.Record, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s ORDER BY random() LIMIT $1`, recordColumns, s.records),
		n,
	)
	if err != nil {
		return nil, &mirror.StorageError{Op: "random_records", Err: err}
	}
	defer rows.Close()
	return collectRecords(rows, "random_records")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*mirror.Record, error) {
	var rec mirror.Record
	err := row.Scan(
		&rec.ID,
		&rec.Code,
		&rec.PublishDate,
		&rec.DisclosureType,
		&rec.Year,
		&rec.Period,
		&rec.Summary,
		&rec.RelatedEntities,
		&rec.Explanation,
		&rec.ExplanationSummary,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows pgx.Rows, op string) ([]mirror.Record, error) {
	var out []mirror.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &mirror.StorageError{Op: op, Err: err}
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &mirror.StorageError{Op: op, Err: err}
	}
	return out, nil
}

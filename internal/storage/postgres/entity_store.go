package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alperaydin/kapmirror/internal/mirror"
)

const entityColumns = `code, name, province, url, tax_no, reg_no, scope, email, website, address, sector`

// SaveEntity replaces any entity with the same code in one transaction, the
// same delete-then-insert shape Upsert uses for records.
func (s *Store) SaveEntity(ctx context.Context, e *mirror.Entity) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &mirror.StorageError{Op: "save_entity", Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE code = $1`, s.entities),
		e.Code,
	); err != nil {
		return &mirror.StorageError{Op: "save_entity", Err: err}
	}

	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, s.entities, entityColumns),
		e.Code,
		e.Name,
		e.Province,
		e.URL,
		e.TaxNo,
		e.RegNo,
		e.Scope,
		e.Email,
		e.Website,
		e.Address,
		e.Sector,
	); err != nil {
		return &mirror.StorageError{Op: "save_entity", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &mirror.StorageError{Op: "save_entity", Err: err}
	}
	return nil
}

// GetEntity returns the entity for a code or mirror.ErrNotFound.
func (s *Store) GetEntity(ctx context.Context, code string) (*mirror.Entity, error) {
	var e mirror.Entity
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE code = $1`, entityColumns, s.entities),
		code,
	).Scan(
		&e.Code,
		&e.Name,
		&e.Province,
		&e.URL,
		&e.TaxNo,
		&e.RegNo,
		&e.Scope,
		&e.Email,
		&e.Website,
		&e.Address,
		&e.Sector,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, &mirror.StorageError{Op: "get_entity", Err: err}
	}
	return &e, nil
}

// DeleteEntity removes the entity for a code. Deleting an absent code is not
// an error.
func (s *Store) DeleteEntity(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE code = $1`, s.entities),
		code,
	); err != nil {
		return &mirror.StorageError{Op: "delete_entity", Err: err}
	}
	return nil
}

// Package db is the Postgres implementation of the lifecycle store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bidmarket/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Storage struct {
	db *sqlx.DB
}

var _ store.UnitOfWork = (*Storage)(nil)

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn in a read-committed transaction. Row locks requested by
// the repository are released on commit or rollback.
func (s *Storage) WithinTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("db: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db: commit: %w", err)
	}
	return nil
}

// txRepo implements store.Repository on top of one transaction.
type txRepo struct {
	tx *sqlx.Tx
}

var _ store.Repository = (*txRepo)(nil)

// mapErr translates driver errors into store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrUniqueViolation, pqErr.Constraint)
	}
	return err
}

// insertReturning binds arg to a named INSERT ... RETURNING query and scans
// the returned columns into dest.
func (r *txRepo) insertReturning(ctx context.Context, query string, arg any, dest ...any) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return mapErr(r.tx.QueryRowxContext(ctx, r.tx.Rebind(q), args...).Scan(dest...))
}

func (r *txRepo) updateNamed(ctx context.Context, query string, arg any) error {
	res, err := r.tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func forUpdate(query string, lock bool) string {
	if lock {
		return query + " FOR UPDATE"
	}
	return query
}

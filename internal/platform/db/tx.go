package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// TxKey is the context key under which the active transaction is stored.
const TxKey contextKey = "db_tx"

// SQLSTATE codes the repositories translate into domain errors.
const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

// Querier is the subset of pgx shared by the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx returns a copy of ctx carrying tx.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// ConnFromContext retrieves the transaction opened by a TxLocker, or nil.
func ConnFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// Conn returns the transaction in ctx when there is one, otherwise the pool.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx := ConnFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// IsExclusionViolation reports whether err is a Postgres exclusion constraint violation.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// TxLocker serializes writers on a key with a transaction-scoped advisory lock.
// The lock is released when the transaction commits or rolls back, so the
// check and the write performed by fn become visible together.
type TxLocker struct {
	pool *pgxpool.Pool
}

func NewTxLocker(pool *pgxpool.Pool) *TxLocker {
	return &TxLocker{pool: pool}
}

// WithinDay runs fn while holding the lock for one professional's calendar date.
func (l *TxLocker) WithinDay(ctx context.Context, professionalID uuid.UUID, date time.Time, fn func(context.Context) error) error {
	return l.within(ctx, "appointment", professionalID.String()+"|"+date.Format("2006-01-02"), fn)
}

// WithinWeekday runs fn while holding the lock for one professional's weekday schedule.
func (l *TxLocker) WithinWeekday(ctx context.Context, professionalID uuid.UUID, day int, fn func(context.Context) error) error {
	return l.within(ctx, "schedule_block", professionalID.String()+"|"+strconv.Itoa(day), fn)
}

func (l *TxLocker) within(ctx context.Context, scope, key string, fn func(context.Context) error) error {
	const lockSQL = `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`

	// Nested call: take the lock on the outer transaction and let it commit.
	if tx := ConnFromContext(ctx); tx != nil {
		if _, err := tx.Exec(ctx, lockSQL, scope, key); err != nil {
			return fmt.Errorf("acquire %s lock: %w", scope, err)
		}
		return fn(ctx)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, lockSQL, scope, key); err != nil {
		return fmt.Errorf("acquire %s lock: %w", scope, err)
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

const uniqueViolation = "23505"

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// txState is the open transaction carried by a context and the work
// deferred until it commits
type txState struct {
	tx          *sql.Tx
	afterCommit []func(ctx context.Context)
}

func txFrom(ctx context.Context) (*txState, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	return st, ok
}

// conn returns the transaction carried by ctx, or the pool
func conn(ctx context.Context, client *postgres.Client) queryer {
	if st, ok := txFrom(ctx); ok {
		return st.tx
	}
	return client.DB()
}

// afterCommit runs fn once the transaction in ctx commits, or immediately
// when ctx carries none. Hooks of a rolled back transaction never run.
func afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := txFrom(ctx); ok {
		st.afterCommit = append(st.afterCommit, fn)
		return
	}
	fn(ctx)
}

func dialect(client *postgres.Client) *goqu.Database {
	return goqu.New("postgres", client.DB())
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresTransactor implements repositories.Transactor on database/sql
type PostgresTransactor struct {
	client *postgres.Client
}

// NewTransactor creates a new transactor
func NewTransactor(client *postgres.Client) repositories.Transactor {
	return &PostgresTransactor{client: client}
}

// WithinTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise. Nested calls join the outer transaction.
// Hooks registered with afterCommit run once the commit succeeds.
func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := t.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	st := &txState{tx: tx}
	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			observability.LoggerFromContext(ctx).Error().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	for _, hook := range st.afterCommit {
		hook(ctx)
	}
	return nil
}

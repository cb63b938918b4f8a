package store

import (
	"context"
	"database/sql"
)

// Narrow views over *sqlx.DB / *sqlx.Tx so stores can run against either,
// and tests can substitute stubs.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is the view stores need of an open transaction.
type Tx interface {
	Execer
	Getter
	Selecter
}

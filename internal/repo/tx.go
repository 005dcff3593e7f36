package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/charter-broker/internal/domain"
)

// Repos bundles the repositories that take part in a request-scoped
// transaction. Every field is bound to the same connection or transaction.
type Repos struct {
	Requests RequestRepo
	Quotes   QuoteRepo
	Matches  MatchRepo
	Events   EventRepo
}

// NewRepos binds all request-scoped repositories to db.
func NewRepos(db db) Repos {
	return Repos{
		Requests: NewRequestRepo(db),
		Quotes:   NewQuoteRepo(db),
		Matches:  NewMatchRepo(db),
		Events:   NewEventRepo(db),
	}
}

// RequestTxFunc runs inside a request-scoped transaction. req is the row as
// read under the lock; tx holds repositories bound to the transaction.
type RequestTxFunc func(ctx context.Context, tx Repos, req domain.CharterRequest) error

// Transactor serializes every mutation of one charter request.
type Transactor interface {
	// WithinRequest begins a transaction, locks request id and calls fn.
	// The transaction commits only if fn returns nil. Returns
	// domain.ErrRequestNotFound if the request does not exist.
	WithinRequest(ctx context.Context, id uuid.UUID, fn RequestTxFunc) error
}

// beginner is satisfied by *pgxpool.Pool, pgx.Conn and pgx.Tx (the last
// one opens a savepoint, which integration tests rely on).
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pgTransactor is the Postgres implementation of Transactor.
type pgTransactor struct {
	db beginner
}

// NewTransactor constructs a Transactor that opens transactions on db.
func NewTransactor(db beginner) Transactor {
	return &pgTransactor{db: db}
}

func (t *pgTransactor) WithinRequest(ctx context.Context, id uuid.UUID, fn RequestTxFunc) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return wrapErr("repo.Transactor.WithinRequest: begin", err)
	}
	// Rollback after a successful Commit is a no-op returning pgx.ErrTxClosed.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	repos := NewRepos(tx)
	req, err := repos.Requests.LockByID(ctx, id)
	if err != nil {
		return fmt.Errorf("repo.Transactor.WithinRequest: %w", err)
	}

	if err := fn(ctx, repos, req); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("repo.Transactor.WithinRequest: commit", err)
	}
	return nil
}

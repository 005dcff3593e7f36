package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/charter-broker/internal/domain"
)

// OperatorRepo defines the persistence operations for Operators.
type OperatorRepo interface {
	// Create inserts an operator and returns it with its generated id.
	Create(ctx context.Context, op domain.Operator) (domain.Operator, error)

	// GetByID returns domain.ErrOperatorNotFound if no such operator exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Operator, error)

	// SetActive switches an operator in or out of matching.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error)
}

// pgOperatorRepo is the Postgres implementation of OperatorRepo.
type pgOperatorRepo struct {
	db db
}

// NewOperatorRepo constructs an OperatorRepo backed by the provided db connection.
func NewOperatorRepo(db db) OperatorRepo {
	return &pgOperatorRepo{db: db}
}

func (r *pgOperatorRepo) Create(ctx context.Context, op domain.Operator) (domain.Operator, error) {
	const q = `
		INSERT INTO operators (name, email, active)
		VALUES (@name, @email, @active)
		RETURNING id, name, email, active, created_at`

	args := pgx.NamedArgs{"name": op.Name, "email": op.Email, "active": op.Active}
	result, err := scanOperator(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Operator{}, wrapErr("repo.OperatorRepo.Create", err)
	}
	return result, nil
}

func (r *pgOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Operator, error) {
	const q = `SELECT id, name, email, active, created_at FROM operators WHERE id = @id`

	result, err := scanOperator(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Operator{}, wrapErr("repo.OperatorRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgOperatorRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error) {
	const q = `
		UPDATE operators SET active = @active
		WHERE id = @id
		RETURNING id, name, email, active, created_at`

	result, err := scanOperator(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "active": active}))
	if err != nil {
		return domain.Operator{}, wrapErr("repo.OperatorRepo.SetActive", err)
	}
	return result, nil
}

func scanOperator(s scanner) (domain.Operator, error) {
	var (
		op domain.Operator
		id pgtype.UUID
	)
	if err := s.Scan(&id, &op.Name, &op.Email, &op.Active, &op.CreatedAt); err != nil {
		return domain.Operator{}, notFound(err, domain.ErrOperatorNotFound)
	}
	op.ID = uuid.UUID(id.Bytes)
	return op, nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/charter-broker/internal/domain"
)

// QuoteRepo defines the persistence operations for Quotes.
type QuoteRepo interface {
	// Create inserts a pending quote. Returns domain.ErrDuplicateQuote when the
	// operator already quoted on the request.
	Create(ctx context.Context, q domain.Quote) (domain.Quote, error)

	// GetByID returns a quote scoped to its request.
	// Returns domain.ErrQuoteNotFound if the quote does not exist under requestID.
	GetByID(ctx context.Context, requestID, quoteID uuid.UUID) (domain.Quote, error)

	// ExistsForOperator reports whether operatorID already quoted on requestID.
	ExistsForOperator(ctx context.Context, requestID, operatorID uuid.UUID) (bool, error)

	// ListByRequest returns every quote on a request in insertion order.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Quote, error)

	// SettleAccepted marks acceptedID accepted and every other quote on the
	// request rejected.
	SettleAccepted(ctx context.Context, requestID, acceptedID uuid.UUID) error
}

const quoteColumns = `id, request_id, operator_id, price_amount, currency, notes, status, created_at`

// pgQuoteRepo is the Postgres implementation of QuoteRepo.
type pgQuoteRepo struct {
	db db
}

// NewQuoteRepo constructs a QuoteRepo backed by the provided db connection.
func NewQuoteRepo(db db) QuoteRepo {
	return &pgQuoteRepo{db: db}
}

func (r *pgQuoteRepo) Create(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	const sql = `
		INSERT INTO quotes (request_id, operator_id, price_amount, currency, notes)
		VALUES (@request_id, @operator_id, @price_amount, @currency, @notes)
		RETURNING ` + quoteColumns

	args := pgx.NamedArgs{
		"request_id":   q.RequestID,
		"operator_id":  q.OperatorID,
		"price_amount": q.Price.Amount,
		"currency":     q.Price.Currency,
		"notes":        q.Notes,
	}

	result, err := scanQuote(r.db.QueryRow(ctx, sql, args))
	if err != nil {
		if isUniqueViolation(err, "quotes_request_operator_key") {
			return domain.Quote{}, fmt.Errorf("repo.QuoteRepo.Create: %w", domain.ErrDuplicateQuote)
		}
		return domain.Quote{}, wrapErr("repo.QuoteRepo.Create", err)
	}
	return result, nil
}

func (r *pgQuoteRepo) GetByID(ctx context.Context, requestID, quoteID uuid.UUID) (domain.Quote, error) {
	const sql = `SELECT ` + quoteColumns + ` FROM quotes WHERE id = @id AND request_id = @request_id`

	result, err := scanQuote(r.db.QueryRow(ctx, sql, pgx.NamedArgs{"id": quoteID, "request_id": requestID}))
	if err != nil {
		return domain.Quote{}, wrapErr("repo.QuoteRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgQuoteRepo) ExistsForOperator(ctx context.Context, requestID, operatorID uuid.UUID) (bool, error) {
	const sql = `
		SELECT EXISTS (
			SELECT 1 FROM quotes WHERE request_id = @request_id AND operator_id = @operator_id
		)`

	var exists bool
	err := r.db.QueryRow(ctx, sql, pgx.NamedArgs{"request_id": requestID, "operator_id": operatorID}).Scan(&exists)
	if err != nil {
		return false, wrapErr("repo.QuoteRepo.ExistsForOperator", err)
	}
	return exists, nil
}

func (r *pgQuoteRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Quote, error) {
	const sql = `SELECT ` + quoteColumns + ` FROM quotes WHERE request_id = @request_id ORDER BY seq`

	rows, err := r.db.Query(ctx, sql, pgx.NamedArgs{"request_id": requestID})
	if err != nil {
		return nil, wrapErr("repo.QuoteRepo.ListByRequest", err)
	}
	defer rows.Close()

	quotes := []domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, wrapErr("repo.QuoteRepo.ListByRequest: scan", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.QuoteRepo.ListByRequest: rows", err)
	}
	return quotes, nil
}

func (r *pgQuoteRepo) SettleAccepted(ctx context.Context, requestID, acceptedID uuid.UUID) error {
	const sql = `
		UPDATE quotes
		SET status = CASE WHEN id = @accepted_id THEN 'accepted' ELSE 'rejected' END
		WHERE request_id = @request_id`

	tag, err := r.db.Exec(ctx, sql, pgx.NamedArgs{"request_id": requestID, "accepted_id": acceptedID})
	if err != nil {
		return wrapErr("repo.QuoteRepo.SettleAccepted", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.QuoteRepo.SettleAccepted: %w", domain.ErrQuoteNotFound)
	}
	return nil
}

func scanQuote(s scanner) (domain.Quote, error) {
	var (
		q                domain.Quote
		id, reqID, opID  pgtype.UUID
		currency, status string
	)

	err := s.Scan(&id, &reqID, &opID, &q.Price.Amount, &currency, &q.Notes, &status, &q.CreatedAt)
	if err != nil {
		return domain.Quote{}, notFound(err, domain.ErrQuoteNotFound)
	}

	q.ID = uuid.UUID(id.Bytes)
	q.RequestID = uuid.UUID(reqID.Bytes)
	q.OperatorID = uuid.UUID(opID.Bytes)
	q.Price.Currency = currency
	q.Status = domain.QuoteStatus(status)
	return q, nil
}

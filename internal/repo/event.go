package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pkordes/charter-broker/internal/domain"
)

// EventRepo appends and reads the status audit trail of a request.
type EventRepo interface {
	// Append records one applied transition. Callers skip unchanged
	// transitions such as a repeated RecordQuote.
	Append(ctx context.Context, requestID uuid.UUID, t domain.Transition) (domain.RequestEvent, error)

	// ListByRequest returns the audit trail oldest first.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error)
}

// pgEventRepo is the Postgres implementation of EventRepo.
type pgEventRepo struct {
	db db
}

// NewEventRepo constructs an EventRepo backed by the provided db connection.
func NewEventRepo(db db) EventRepo {
	return &pgEventRepo{db: db}
}

func (r *pgEventRepo) Append(ctx context.Context, requestID uuid.UUID, t domain.Transition) (domain.RequestEvent, error) {
	const q = `
		INSERT INTO request_events (request_id, from_status, to_status, event, created_at)
		VALUES (@request_id, @from_status, @to_status, @event, @created_at)
		RETURNING id, request_id, from_status, to_status, event, created_at`

	args := pgx.NamedArgs{
		"request_id":  requestID,
		"from_status": t.From.String(),
		"to_status":   t.To.String(),
		"event":       t.Event.String(),
		"created_at":  t.At,
	}
	ev, err := scanEvent(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.RequestEvent{}, wrapErr("repo.EventRepo.Append", err)
	}
	return ev, nil
}

func (r *pgEventRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error) {
	const q = `
		SELECT id, request_id, from_status, to_status, event, created_at
		FROM request_events
		WHERE request_id = @request_id
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"request_id": requestID})
	if err != nil {
		return nil, wrapErr("repo.EventRepo.ListByRequest", err)
	}
	defer rows.Close()

	events := []domain.RequestEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, wrapErr("repo.EventRepo.ListByRequest: scan", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.EventRepo.ListByRequest: rows", err)
	}
	return events, nil
}

func scanEvent(s scanner) (domain.RequestEvent, error) {
	var (
		ev       domain.RequestEvent
		reqID    uuid.UUID
		from, to string
	)
	if err := s.Scan(&ev.ID, &reqID, &from, &to, &ev.Event, &ev.CreatedAt); err != nil {
		return domain.RequestEvent{}, err
	}
	ev.RequestID = reqID
	var err error
	if ev.From, err = domain.ParseStatus(from); err != nil {
		return domain.RequestEvent{}, err
	}
	if ev.To, err = domain.ParseStatus(to); err != nil {
		return domain.RequestEvent{}, err
	}
	return ev, nil
}

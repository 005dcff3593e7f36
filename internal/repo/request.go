package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
)

// RequestRepo defines the persistence operations for CharterRequests.
// The service layer depends on this interface, not the Postgres implementation.
type RequestRepo interface {
	// Create inserts a new draft and returns the persisted record with the
	// DB-generated id and timestamps populated.
	Create(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error)

	// GetByID retrieves a single request by id.
	// Returns domain.ErrRequestNotFound if no such request exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)

	// LockByID is GetByID with a row lock held until the surrounding
	// transaction ends. It must be called on a transaction.
	LockByID(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)

	// UpdateLifecycle writes the status, lifecycle timestamps and accepted
	// quote of req. Returns domain.ErrRequestNotFound if the row is gone.
	UpdateLifecycle(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error)

	// ListPaged returns one page of requests, newest first, and the total count.
	ListPaged(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)

	// ListEligibleForOperator returns the open requests the operator was
	// matched to at publish time, newest first, and the total count.
	ListEligibleForOperator(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)
}

const requestColumns = `
	r.id, r.requester_name, r.requester_email,
	r.pickup_raw, r.pickup_resolved, r.pickup_lat, r.pickup_lng, r.pickup_confidence,
	r.destination_raw, r.destination_resolved, r.destination_lat, r.destination_lng, r.destination_confidence,
	r.passenger_count, r.departure_at, r.notes,
	r.status, r.published_at, r.quote_deadline, r.cancelled_at, r.completed_at,
	r.accepted_quote_id, r.created_at, r.updated_at`

// pgRequestRepo is the Postgres implementation of RequestRepo.
type pgRequestRepo struct {
	db db
}

// NewRequestRepo constructs a RequestRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRequestRepo(db db) RequestRepo {
	return &pgRequestRepo{db: db}
}

func (r *pgRequestRepo) Create(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	q := `
		INSERT INTO charter_requests AS r (
			requester_name, requester_email,
			pickup_raw, pickup_resolved, pickup_lat, pickup_lng, pickup_confidence,
			destination_raw, destination_resolved, destination_lat, destination_lng, destination_confidence,
			passenger_count, departure_at, notes, status)
		VALUES (
			@requester_name, @requester_email,
			@pickup_raw, @pickup_resolved, @pickup_lat, @pickup_lng, @pickup_confidence,
			@destination_raw, @destination_resolved, @destination_lat, @destination_lng, @destination_confidence,
			@passenger_count, @departure_at, @notes, @status)
		RETURNING` + requestColumns

	pLat, pLng := pointArgs(req.Pickup.Coordinates)
	dLat, dLng := pointArgs(req.Destination.Coordinates)
	args := pgx.NamedArgs{
		"requester_name":         req.RequesterName,
		"requester_email":        req.RequesterEmail,
		"pickup_raw":             req.Pickup.RawInput,
		"pickup_resolved":        req.Pickup.ResolvedName,
		"pickup_lat":             pLat,
		"pickup_lng":             pLng,
		"pickup_confidence":      req.Pickup.Confidence.String(),
		"destination_raw":        req.Destination.RawInput,
		"destination_resolved":   req.Destination.ResolvedName,
		"destination_lat":        dLat,
		"destination_lng":        dLng,
		"destination_confidence": req.Destination.Confidence.String(),
		"passenger_count":        req.PassengerCount,
		"departure_at":           req.DepartureAt,
		"notes":                  req.Notes,
		"status":                 domain.StatusDraft.String(),
	}

	result, err := scanRequest(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.CharterRequest{}, wrapErr("repo.RequestRepo.Create", err)
	}
	return result, nil
}

func (r *pgRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	q := `SELECT` + requestColumns + ` FROM charter_requests r WHERE r.id = @id`

	result, err := scanRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.CharterRequest{}, wrapErr("repo.RequestRepo.GetByID", err)
	}
	return result, nil
}

func (r *pgRequestRepo) LockByID(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	q := `SELECT` + requestColumns + ` FROM charter_requests r WHERE r.id = @id FOR UPDATE`

	result, err := scanRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.CharterRequest{}, wrapErr("repo.RequestRepo.LockByID", err)
	}
	return result, nil
}

// UpdateLifecycle never touches published_at/quote_deadline once they are
// set; COALESCE keeps the stored values.
func (r *pgRequestRepo) UpdateLifecycle(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	q := `
		UPDATE charter_requests AS r
		SET status            = @status,
		    published_at      = COALESCE(r.published_at, @published_at),
		    quote_deadline    = COALESCE(r.quote_deadline, @quote_deadline),
		    cancelled_at      = @cancelled_at,
		    completed_at      = @completed_at,
		    accepted_quote_id = @accepted_quote_id,
		    updated_at        = now()
		WHERE r.id = @id
		RETURNING` + requestColumns

	lc := req.Lifecycle()
	args := pgx.NamedArgs{
		"id":                req.ID,
		"status":            lc.Status.String(),
		"published_at":      lc.PublishedAt,
		"quote_deadline":    lc.QuoteDeadline,
		"cancelled_at":      lc.CancelledAt,
		"completed_at":      lc.CompletedAt,
		"accepted_quote_id": req.AcceptedQuoteID,
	}

	result, err := scanRequest(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.CharterRequest{}, wrapErr("repo.RequestRepo.UpdateLifecycle", err)
	}
	return result, nil
}

func (r *pgRequestRepo) ListPaged(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	q := `
		SELECT` + requestColumns + `, COUNT(*) OVER () AS total
		FROM charter_requests r
		WHERE (@status = '' OR r.status = @status)
		ORDER BY r.created_at DESC, r.id
		LIMIT @limit OFFSET @offset`

	status := ""
	if !f.Status.IsZero() {
		status = f.Status.String()
	}
	args := pgx.NamedArgs{"status": status, "limit": p.Limit, "offset": p.Offset()}

	reqs, total, err := r.listWithTotal(ctx, q, args)
	if err != nil {
		return nil, 0, wrapErr("repo.RequestRepo.ListPaged", err)
	}
	return reqs, total, nil
}

func (r *pgRequestRepo) ListEligibleForOperator(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	q := `
		SELECT` + requestColumns + `, COUNT(*) OVER () AS total
		FROM charter_requests r
		JOIN request_matches m ON m.request_id = r.id
		WHERE m.operator_id = @operator_id
		  AND r.status IN ('published', 'quotes_received')
		ORDER BY r.published_at DESC, r.id
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"operator_id": operatorID, "limit": p.Limit, "offset": p.Offset()}

	reqs, total, err := r.listWithTotal(ctx, q, args)
	if err != nil {
		return nil, 0, wrapErr("repo.RequestRepo.ListEligibleForOperator", err)
	}
	return reqs, total, nil
}

// listWithTotal runs a query whose last column is a window COUNT(*).
// An empty page yields total 0 even when OFFSET skipped every row.
func (r *pgRequestRepo) listWithTotal(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.CharterRequest, int64, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reqs := []domain.CharterRequest{}
	var total int64
	for rows.Next() {
		req, err := scanRequest(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows: %w", err)
	}
	return reqs, total, nil
}

// scanRequest maps one row selected with requestColumns into a
// domain.CharterRequest. extra receives any trailing columns.
func scanRequest(s scanner, extra ...any) (domain.CharterRequest, error) {
	var (
		req              domain.CharterRequest
		id, acceptedID   pgtype.UUID
		pLat, pLng       pgtype.Float8
		dLat, dLng       pgtype.Float8
		pConf, dConf     string
		status           string
		published, dline pgtype.Timestamptz
		cancelled, done  pgtype.Timestamptz
	)

	dest := []any{
		&id, &req.RequesterName, &req.RequesterEmail,
		&req.Pickup.RawInput, &req.Pickup.ResolvedName, &pLat, &pLng, &pConf,
		&req.Destination.RawInput, &req.Destination.ResolvedName, &dLat, &dLng, &dConf,
		&req.PassengerCount, &req.DepartureAt, &req.Notes,
		&status, &published, &dline, &cancelled, &done,
		&acceptedID, &req.CreatedAt, &req.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.CharterRequest{}, notFound(err, domain.ErrRequestNotFound)
	}

	req.ID = uuid.UUID(id.Bytes)
	if acceptedID.Valid {
		aid := uuid.UUID(acceptedID.Bytes)
		req.AcceptedQuoteID = &aid
	}
	req.Pickup.Coordinates = pointFrom(pLat, pLng)
	req.Destination.Coordinates = pointFrom(dLat, dLng)

	var err error
	if req.Pickup.Confidence, err = domain.ParseConfidence(pConf); err != nil {
		return domain.CharterRequest{}, err
	}
	if req.Destination.Confidence, err = domain.ParseConfidence(dConf); err != nil {
		return domain.CharterRequest{}, err
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.CharterRequest{}, err
	}
	if err := req.Restore(domain.LifecycleState{
		Status:        st,
		PublishedAt:   timePtr(published),
		QuoteDeadline: timePtr(dline),
		CancelledAt:   timePtr(cancelled),
		CompletedAt:   timePtr(done),
	}); err != nil {
		return domain.CharterRequest{}, err
	}
	return req, nil
}

func pointArgs(p *geo.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lng
}

func pointFrom(lat, lng pgtype.Float8) *geo.Point {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/charter-broker/internal/domain"
)

// MatchRepo persists the eligible-operator list computed at publish time.
type MatchRepo interface {
	// InsertBatch stores matches in one round trip. An empty slice is a no-op.
	InsertBatch(ctx context.Context, matches []domain.Match) error

	// ListByRequest returns a request's matches in rank order.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error)
}

// pgMatchRepo is the Postgres implementation of MatchRepo.
type pgMatchRepo struct {
	db db
}

// NewMatchRepo constructs a MatchRepo backed by the provided db connection.
func NewMatchRepo(db db) MatchRepo {
	return &pgMatchRepo{db: db}
}

func (r *pgMatchRepo) InsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	const q = `
		INSERT INTO request_matches (request_id, operator_id, distance_km, rank)
		VALUES (@request_id, @operator_id, @distance_km, @rank)`

	batch := &pgx.Batch{}
	for _, m := range matches {
		batch.Queue(q, pgx.NamedArgs{
			"request_id":  m.RequestID,
			"operator_id": m.OperatorID,
			"distance_km": m.DistanceKm,
			"rank":        m.Rank,
		})
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapErr("repo.MatchRepo.InsertBatch", err)
	}
	return nil
}

func (r *pgMatchRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Match, error) {
	const q = `
		SELECT request_id, operator_id, distance_km, rank, created_at
		FROM request_matches
		WHERE request_id = @request_id
		ORDER BY rank`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"request_id": requestID})
	if err != nil {
		return nil, wrapErr("repo.MatchRepo.ListByRequest", err)
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		var (
			m           domain.Match
			reqID, opID pgtype.UUID
		)
		if err := rows.Scan(&reqID, &opID, &m.DistanceKm, &m.Rank, &m.CreatedAt); err != nil {
			return nil, wrapErr("repo.MatchRepo.ListByRequest: scan", err)
		}
		m.RequestID = uuid.UUID(reqID.Bytes)
		m.OperatorID = uuid.UUID(opID.Bytes)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.MatchRepo.ListByRequest: rows", err)
	}
	return matches, nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/charter-broker/internal/domain"
)

// CoverageRepo defines the persistence operations for OperatorCoverage.
// There is at most one coverage row per operator.
type CoverageRepo interface {
	// Upsert creates or replaces the operator's coverage row.
	// Returns domain.ErrOperatorNotFound if the operator does not exist.
	Upsert(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error)

	// GetByOperator returns the operator's coverage.
	// Returns domain.ErrOperatorNotFound when none is stored.
	GetByOperator(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error)

	// Delete removes the operator's coverage. Quotes and matches are untouched.
	Delete(ctx context.Context, operatorID uuid.UUID) error

	// ActiveCoverages returns the coverage of every active operator, read in
	// a single statement so callers see one consistent snapshot.
	ActiveCoverages(ctx context.Context) ([]domain.OperatorCoverage, error)
}

const coverageColumns = `
	c.operator_id, c.base_name, c.base_lat, c.base_lng, c.is_geocoded,
	c.geocoding_error, c.coverage_radius_km, c.capacity_min, c.capacity_max, c.updated_at`

// pgCoverageRepo is the Postgres implementation of CoverageRepo.
type pgCoverageRepo struct {
	db db
}

// NewCoverageRepo constructs a CoverageRepo backed by the provided db connection.
func NewCoverageRepo(db db) CoverageRepo {
	return &pgCoverageRepo{db: db}
}

func (r *pgCoverageRepo) Upsert(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error) {
	q := `
		INSERT INTO operator_coverages AS c (
			operator_id, base_name, base_lat, base_lng, is_geocoded, geocoding_error,
			coverage_radius_km, capacity_min, capacity_max)
		SELECT o.id, @base_name, @base_lat, @base_lng, @is_geocoded, @geocoding_error,
		       @coverage_radius_km, @capacity_min, @capacity_max
		FROM operators o
		WHERE o.id = @operator_id
		ON CONFLICT (operator_id) DO UPDATE SET
			base_name          = EXCLUDED.base_name,
			base_lat           = EXCLUDED.base_lat,
			base_lng           = EXCLUDED.base_lng,
			is_geocoded        = EXCLUDED.is_geocoded,
			geocoding_error    = EXCLUDED.geocoding_error,
			coverage_radius_km = EXCLUDED.coverage_radius_km,
			capacity_min       = EXCLUDED.capacity_min,
			capacity_max       = EXCLUDED.capacity_max,
			updated_at         = now()
		RETURNING` + coverageColumns

	lat, lng := pointArgs(c.BaseLocation.Coordinates)
	var geoErr *string
	if c.GeocodingError != "" {
		geoErr = &c.GeocodingError
	}
	args := pgx.NamedArgs{
		"operator_id":        c.OperatorID,
		"base_name":          c.BaseLocation.Name,
		"base_lat":           lat,
		"base_lng":           lng,
		"is_geocoded":        c.IsGeocoded,
		"geocoding_error":    geoErr,
		"coverage_radius_km": c.CoverageRadiusKm,
		"capacity_min":       c.Capacity.Min,
		"capacity_max":       c.Capacity.Max,
	}

	// INSERT ... SELECT inserts nothing for an unknown operator, which
	// surfaces as pgx.ErrNoRows on RETURNING.
	result, err := scanCoverage(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.OperatorCoverage{}, wrapErr("repo.CoverageRepo.Upsert", err)
	}
	return result, nil
}

func (r *pgCoverageRepo) GetByOperator(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error) {
	q := `SELECT` + coverageColumns + ` FROM operator_coverages c WHERE c.operator_id = @operator_id`

	result, err := scanCoverage(r.db.QueryRow(ctx, q, pgx.NamedArgs{"operator_id": operatorID}))
	if err != nil {
		return domain.OperatorCoverage{}, wrapErr("repo.CoverageRepo.GetByOperator", err)
	}
	return result, nil
}

func (r *pgCoverageRepo) Delete(ctx context.Context, operatorID uuid.UUID) error {
	const q = `DELETE FROM operator_coverages WHERE operator_id = @operator_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"operator_id": operatorID})
	if err != nil {
		return wrapErr("repo.CoverageRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CoverageRepo.Delete: %w", domain.ErrOperatorNotFound)
	}
	return nil
}

func (r *pgCoverageRepo) ActiveCoverages(ctx context.Context) ([]domain.OperatorCoverage, error) {
	q := `
		SELECT` + coverageColumns + `
		FROM operator_coverages c
		JOIN operators o ON o.id = c.operator_id
		WHERE o.active
		ORDER BY c.operator_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, wrapErr("repo.CoverageRepo.ActiveCoverages", err)
	}
	defer rows.Close()

	covs := []domain.OperatorCoverage{}
	for rows.Next() {
		c, err := scanCoverage(rows)
		if err != nil {
			return nil, wrapErr("repo.CoverageRepo.ActiveCoverages: scan", err)
		}
		covs = append(covs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("repo.CoverageRepo.ActiveCoverages: rows", err)
	}
	return covs, nil
}

func scanCoverage(s scanner) (domain.OperatorCoverage, error) {
	var (
		c        domain.OperatorCoverage
		opID     pgtype.UUID
		lat, lng pgtype.Float8
		geoErr   pgtype.Text
	)

	err := s.Scan(&opID, &c.BaseLocation.Name, &lat, &lng, &c.IsGeocoded,
		&geoErr, &c.CoverageRadiusKm, &c.Capacity.Min, &c.Capacity.Max, &c.UpdatedAt)
	if err != nil {
		return domain.OperatorCoverage{}, notFound(err, domain.ErrOperatorNotFound)
	}

	c.OperatorID = uuid.UUID(opID.Bytes)
	c.BaseLocation.Coordinates = pointFrom(lat, lng)
	if geoErr.Valid {
		c.GeocodingError = geoErr.String
	}
	return c, nil
}

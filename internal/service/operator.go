package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
	"github.com/pkordes/charter-broker/internal/repo"
)

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

// SnapshotInvalidator drops any cached coverage snapshot.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OperatorService manages operators and their coverage declarations.
type OperatorService struct {
	operators repo.OperatorRepo
	coverages repo.CoverageRepo
	geocoder  Geocoder
	cache     SnapshotInvalidator
	log       *slog.Logger
}

// NewOperatorService constructs an OperatorService. geocoder and cache may
// be nil: without a geocoder, coverage lacking explicit coordinates is stored
// as not geocoded; without a cache, nothing is invalidated.
func NewOperatorService(operators repo.OperatorRepo, coverages repo.CoverageRepo, geocoder Geocoder, cache SnapshotInvalidator, log *slog.Logger) *OperatorService {
	if log == nil {
		log = slog.Default()
	}
	return &OperatorService{operators: operators, coverages: coverages, geocoder: geocoder, cache: cache, log: log}
}

// CreateOperator registers a new, active operator.
func (s *OperatorService) CreateOperator(ctx context.Context, op domain.Operator) (domain.Operator, error) {
	op.Name = strings.TrimSpace(op.Name)
	op.Email = strings.TrimSpace(op.Email)
	if op.Name == "" {
		return domain.Operator{}, fmt.Errorf("service.OperatorService.CreateOperator: %w: name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(op.Email); err != nil {
		return domain.Operator{}, fmt.Errorf("service.OperatorService.CreateOperator: %w: email is not a valid address", domain.ErrValidation)
	}
	op.Active = true

	created, err := s.operators.Create(ctx, op)
	if err != nil {
		return domain.Operator{}, fmt.Errorf("service.OperatorService.CreateOperator: %w", err)
	}
	return created, nil
}

// GetOperator returns domain.ErrOperatorNotFound if the operator does not exist.
func (s *OperatorService) GetOperator(ctx context.Context, id uuid.UUID) (domain.Operator, error) {
	op, err := s.operators.GetByID(ctx, id)
	if err != nil {
		return domain.Operator{}, fmt.Errorf("service.OperatorService.GetOperator: %w", err)
	}
	return op, nil
}

// SetActive takes an operator in or out of matching.
func (s *OperatorService) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error) {
	op, err := s.operators.SetActive(ctx, id, active)
	if err != nil {
		return domain.Operator{}, fmt.Errorf("service.OperatorService.SetActive: %w", err)
	}
	s.invalidate(ctx)
	return op, nil
}

// UpsertCoverage validates and stores an operator's coverage. When the
// caller supplies no coordinates, the base location name is geocoded; a
// failed lookup is stored with IsGeocoded=false and the failure text in
// GeocodingError instead of rejecting the save.
func (s *OperatorService) UpsertCoverage(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error) {
	c.BaseLocation.Name = strings.TrimSpace(c.BaseLocation.Name)
	if err := validateCoverage(c); err != nil {
		return domain.OperatorCoverage{}, fmt.Errorf("service.OperatorService.UpsertCoverage: %w", err)
	}

	c.IsGeocoded, c.GeocodingError = false, ""
	switch {
	case c.BaseLocation.Coordinates != nil:
		c.IsGeocoded = true
	case s.geocoder == nil:
		c.GeocodingError = "geocoding unavailable"
	default:
		p, err := s.geocoder.Geocode(ctx, c.BaseLocation.Name)
		if err != nil {
			s.log.WarnContext(ctx, "geocode operator base failed",
				"operator_id", c.OperatorID,
				"base", c.BaseLocation.Name,
				"error", err,
			)
			c.GeocodingError = err.Error()
			break
		}
		c.BaseLocation.Coordinates = &p
		c.IsGeocoded = true
	}

	saved, err := s.coverages.Upsert(ctx, c)
	if err != nil {
		return domain.OperatorCoverage{}, fmt.Errorf("service.OperatorService.UpsertCoverage: %w", err)
	}
	s.invalidate(ctx)
	return saved, nil
}

// GetCoverage returns domain.ErrOperatorNotFound when no coverage is stored.
func (s *OperatorService) GetCoverage(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error) {
	c, err := s.coverages.GetByOperator(ctx, operatorID)
	if err != nil {
		return domain.OperatorCoverage{}, fmt.Errorf("service.OperatorService.GetCoverage: %w", err)
	}
	return c, nil
}

// DeleteCoverage removes an operator's coverage. Existing quotes and
// matches are kept.
func (s *OperatorService) DeleteCoverage(ctx context.Context, operatorID uuid.UUID) error {
	if err := s.coverages.Delete(ctx, operatorID); err != nil {
		return fmt.Errorf("service.OperatorService.DeleteCoverage: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// invalidate is best effort; a stale snapshot expires with its TTL.
func (s *OperatorService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "coverage snapshot invalidation failed", "error", err)
	}
}

func validateCoverage(c domain.OperatorCoverage) error {
	if c.OperatorID == uuid.Nil {
		return fmt.Errorf("%w: operator is required", domain.ErrValidation)
	}
	if c.BaseLocation.Name == "" {
		return fmt.Errorf("%w: base_location.name is required", domain.ErrValidation)
	}
	if c.BaseLocation.Coordinates != nil && !c.BaseLocation.Coordinates.Valid() {
		return fmt.Errorf("%w: base_location.coordinates out of range", domain.ErrValidation)
	}
	if math.IsNaN(c.CoverageRadiusKm) || math.IsInf(c.CoverageRadiusKm, 0) || c.CoverageRadiusKm < 0 {
		return fmt.Errorf("%w: coverage_radius_km must be a non-negative number", domain.ErrValidation)
	}
	if c.Capacity.Min < 1 {
		return fmt.Errorf("%w: capacity.min must be at least 1", domain.ErrValidation)
	}
	if c.Capacity.Min > c.Capacity.Max {
		return fmt.Errorf("%w: capacity.min must not exceed capacity.max", domain.ErrValidation)
	}
	return nil
}

package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
)

const coverageSnapshotKey = "matching:coverage:snapshot"

// coverageEntry is the cached JSON form of one coverage row.
type coverageEntry struct {
	OperatorID       uuid.UUID  `json:"operator_id"`
	BaseName         string     `json:"base_name"`
	Coordinates      *geo.Point `json:"coordinates,omitempty"`
	IsGeocoded       bool       `json:"is_geocoded"`
	GeocodingError   string     `json:"geocoding_error,omitempty"`
	CoverageRadiusKm float64    `json:"coverage_radius_km"`
	CapacityMin      int        `json:"capacity_min"`
	CapacityMax      int        `json:"capacity_max"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CachedCoverageSource serves coverage snapshots from Redis, falling back to
// the wrapped source on a miss. The whole snapshot is stored as one value so
// a reader always sees a single consistent table.
type CachedCoverageSource struct {
	client *redis.Client
	source CoverageSource
	ttl    time.Duration
	log    *slog.Logger
}

// NewCachedCoverageSource wraps source with a Redis snapshot cache.
func NewCachedCoverageSource(client *redis.Client, source CoverageSource, ttl time.Duration, log *slog.Logger) *CachedCoverageSource {
	if log == nil {
		log = slog.Default()
	}
	return &CachedCoverageSource{client: client, source: source, ttl: ttl, log: log}
}

// ActiveCoverages returns the cached snapshot or loads and caches a fresh one.
// Redis errors degrade to a direct read; only the underlying source can fail
// the call.
func (c *CachedCoverageSource) ActiveCoverages(ctx context.Context) ([]domain.OperatorCoverage, error) {
	data, err := c.client.Get(ctx, coverageSnapshotKey).Bytes()
	switch {
	case err == nil:
		covs, decodeErr := decodeSnapshot(data)
		if decodeErr == nil {
			return covs, nil
		}
		c.log.WarnContext(ctx, "discarding unreadable coverage snapshot", "error", decodeErr)
	case errors.Is(err, redis.Nil):
	default:
		c.log.WarnContext(ctx, "coverage cache read failed", "error", err)
	}

	covs, err := c.source.ActiveCoverages(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := encodeSnapshot(covs)
	if err != nil {
		return covs, nil
	}
	if err := c.client.Set(ctx, coverageSnapshotKey, payload, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "coverage cache write failed", "error", err)
	}
	return covs, nil
}

// Invalidate drops the cached snapshot so the next match reads fresh rows.
func (c *CachedCoverageSource) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, coverageSnapshotKey).Err(); err != nil {
		return fmt.Errorf("matching.CachedCoverageSource.Invalidate: %w", err)
	}
	return nil
}

func encodeSnapshot(covs []domain.OperatorCoverage) ([]byte, error) {
	entries := make([]coverageEntry, len(covs))
	for i, c := range covs {
		entries[i] = coverageEntry{
			OperatorID:       c.OperatorID,
			BaseName:         c.BaseLocation.Name,
			Coordinates:      c.BaseLocation.Coordinates,
			IsGeocoded:       c.IsGeocoded,
			GeocodingError:   c.GeocodingError,
			CoverageRadiusKm: c.CoverageRadiusKm,
			CapacityMin:      c.Capacity.Min,
			CapacityMax:      c.Capacity.Max,
			UpdatedAt:        c.UpdatedAt,
		}
	}
	return json.Marshal(entries)
}

func decodeSnapshot(data []byte) ([]domain.OperatorCoverage, error) {
	var entries []coverageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	covs := make([]domain.OperatorCoverage, len(entries))
	for i, e := range entries {
		covs[i] = domain.OperatorCoverage{
			OperatorID:       e.OperatorID,
			BaseLocation:     domain.BaseLocation{Name: e.BaseName, Coordinates: e.Coordinates},
			IsGeocoded:       e.IsGeocoded,
			GeocodingError:   e.GeocodingError,
			CoverageRadiusKm: e.CoverageRadiusKm,
			Capacity:         domain.CapacityRange{Min: e.CapacityMin, Max: e.CapacityMax},
			UpdatedAt:        e.UpdatedAt,
		}
	}
	return covs, nil
}

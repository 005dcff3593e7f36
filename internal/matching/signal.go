package matching

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	noCoverageKey      = "matching:no_coverage"
	noCoverageCountKey = "matching:no_coverage:count"
)

// RedisSignals keeps a time-ordered set of requests that matched nobody,
// plus a running counter, so admins can follow up on coverage gaps.
type RedisSignals struct {
	client *redis.Client
}

// NewRedisSignals constructs a RedisSignals on the given client.
func NewRedisSignals(client *redis.Client) *RedisSignals {
	return &RedisSignals{client: client}
}

// RecordNoCoverage adds requestID to the signal set scored by at.
// Recording the same request twice keeps one entry.
func (s *RedisSignals) RecordNoCoverage(ctx context.Context, requestID uuid.UUID, at time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, noCoverageKey, redis.Z{Score: float64(at.Unix()), Member: requestID.String()})
	pipe.Incr(ctx, noCoverageCountKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("matching.RedisSignals.RecordNoCoverage: %w", err)
	}
	return nil
}

// NoCoverageSince lists request ids signalled at or after since, oldest first.
func (s *RedisSignals) NoCoverageSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	members, err := s.client.ZRangeByScore(ctx, noCoverageKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("matching.RedisSignals.NoCoverageSince: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

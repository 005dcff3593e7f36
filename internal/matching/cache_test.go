package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/matching"
	"github.com/pkordes/charter-broker/testutil"
)

// TestCachedCoverageSource is an integration test against a real Redis.
// It is skipped unless TEST_REDIS_ADDR is set.
func TestCachedCoverageSource(t *testing.T) {
	client := testutil.NewRedis(t)
	ctx := context.Background()

	src := &fakeSource{coverages: []domain.OperatorCoverage{coverageAt(tenKmSouth, 50, 10, 30)}}
	cache := matching.NewCachedCoverageSource(client, src, time.Minute, nil)
	require.NoError(t, cache.Invalidate(ctx))

	first, err := cache.ActiveCoverages(ctx)
	require.NoError(t, err)
	second, err := cache.ActiveCoverages(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls, "second read must be served from the cache")
	require.Len(t, second, 1)
	assert.Equal(t, first[0].OperatorID, second[0].OperatorID)
	assert.Equal(t, *first[0].BaseLocation.Coordinates, *second[0].BaseLocation.Coordinates)
	assert.Equal(t, first[0].Capacity, second[0].Capacity)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.ActiveCoverages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "invalidate must force a fresh read")
}

func TestRedisSignals(t *testing.T) {
	client := testutil.NewRedis(t)
	ctx := context.Background()
	signals := matching.NewRedisSignals(client)

	req := publishedRequest(t, 99)
	at := time.Now().UTC()
	require.NoError(t, signals.RecordNoCoverage(ctx, req.ID, at))
	require.NoError(t, signals.RecordNoCoverage(ctx, req.ID, at))

	ids, err := signals.NoCoverageSince(ctx, at.Add(-time.Second))
	require.NoError(t, err)
	assert.Contains(t, ids, req.ID)

	later, err := signals.NoCoverageSince(ctx, at.Add(time.Hour))
	require.NoError(t, err)
	assert.NotContains(t, later, req.ID)
}

package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
	"github.com/pkordes/charter-broker/internal/repo"
	"github.com/pkordes/charter-broker/testutil"
)

var (
	sydneyCBD  = geo.Point{Lat: -33.8688, Lng: 151.2093}
	parramatta = geo.Point{Lat: -33.8150, Lng: 151.0011}
)

// newTestTx opens a transaction on the test database that is rolled back
// when the test finishes.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

func draftInput() domain.CharterRequest {
	pickup := sydneyCBD
	return domain.NewDraft(domain.CharterRequest{
		RequesterName:  "Jordan Lee",
		RequesterEmail: "jordan@example.com",
		Pickup: domain.Location{
			RawInput:     "Sydney CBD",
			ResolvedName: "Sydney NSW 2000",
			Coordinates:  &pickup,
			Confidence:   domain.ConfidenceHigh,
		},
		Destination: domain.Location{
			RawInput:   "somewhere in the Blue Mountains",
			Confidence: domain.ConfidenceLow,
		},
		PassengerCount: 22,
		DepartureAt:    time.Date(2026, 11, 20, 8, 30, 0, 0, time.UTC),
		Notes:          "wedding party",
	})
}

func mustCreateRequest(t *testing.T, tx pgx.Tx) domain.CharterRequest {
	t.Helper()
	req, err := repo.NewRequestRepo(tx).Create(context.Background(), draftInput())
	require.NoError(t, err)
	return req
}

func mustCreateOperator(t *testing.T, tx pgx.Tx, name string) domain.Operator {
	t.Helper()
	op, err := repo.NewOperatorRepo(tx).Create(context.Background(), domain.Operator{
		Name:   name,
		Email:  "dispatch@" + name + ".example.com",
		Active: true,
	})
	require.NoError(t, err)
	return op
}

// publishRequest walks req from Draft to Published and saves it.
func publishRequest(t *testing.T, tx pgx.Tx, req domain.CharterRequest, at time.Time) domain.CharterRequest {
	t.Helper()
	_, err := req.SubmitForReview(at)
	require.NoError(t, err)
	_, err = req.Publish(at)
	require.NoError(t, err)
	saved, err := repo.NewRequestRepo(tx).UpdateLifecycle(context.Background(), req)
	require.NoError(t, err)
	return saved
}

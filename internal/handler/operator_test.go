package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/geo"
	"github.com/pkordes/charter-broker/internal/handler"
)

func TestCreateOperator_201(t *testing.T) {
	ops := &mockOperatorServicer{
		create: func(_ context.Context, op domain.Operator) (domain.Operator, error) {
			op.ID = uuid.New()
			op.Active = true
			op.CreatedAt = t0
			return op, nil
		},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodPost, "/operators",
		map[string]any{"name": "Harbour Coaches", "email": "ops@harbour.example"})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[handler.Operator](t, rec)
	assert.Equal(t, "Harbour Coaches", resp.Name)
	assert.True(t, resp.Active)
}

func TestGetOperator_404(t *testing.T) {
	ops := &mockOperatorServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Operator, error) {
			return domain.Operator{}, fmt.Errorf("service.OperatorService.GetOperator: %w", domain.ErrOperatorNotFound)
		},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodGet, "/operators/"+uuid.New().String(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetOperatorActive_200(t *testing.T) {
	id := uuid.New()
	ops := &mockOperatorServicer{
		setActive: func(_ context.Context, gotID uuid.UUID, active bool) (domain.Operator, error) {
			assert.Equal(t, id, gotID)
			assert.False(t, active)
			return domain.Operator{ID: id, Name: "Harbour Coaches", Active: false}, nil
		},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodPut, "/operators/"+id.String()+"/active", map[string]any{"active": false})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handler.Operator](t, rec).Active)
}

func TestSetOperatorActive_422_Missing(t *testing.T) {
	rec := do(t, newHTTPHandler(nil, nil, &mockOperatorServicer{}), http.MethodPut,
		"/operators/"+uuid.New().String()+"/active", map[string]any{})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "active is required", decode[handler.ErrorResponse](t, rec).Error.Message)
}

func TestUpsertCoverage_200(t *testing.T) {
	id := uuid.New()
	var got domain.OperatorCoverage
	ops := &mockOperatorServicer{
		upsertCoverage: func(_ context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error) {
			got = c
			c.IsGeocoded = true
			c.BaseLocation.Coordinates = &geo.Point{Lat: -33.8688, Lng: 151.2093}
			c.UpdatedAt = t0
			return c, nil
		},
	}
	body := map[string]any{
		"base_location":      map[string]any{"name": "Sydney"},
		"coverage_radius_km": 50,
		"capacity":           map[string]any{"min": 10, "max": 60},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodPut, "/operators/"+id.String()+"/coverage", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got.OperatorID)
	assert.Equal(t, "Sydney", got.BaseLocation.Name)
	assert.Nil(t, got.BaseLocation.Coordinates, "handler must not invent coordinates")
	assert.Equal(t, domain.CapacityRange{Min: 10, Max: 60}, got.Capacity)

	resp := decode[handler.Coverage](t, rec)
	assert.True(t, resp.IsGeocoded)
	require.NotNil(t, resp.BaseLocation.Coordinates)
	assert.InDelta(t, 151.2093, resp.BaseLocation.Coordinates.Lng, 1e-9)
}

func TestUpsertCoverage_422(t *testing.T) {
	ops := &mockOperatorServicer{
		upsertCoverage: func(_ context.Context, _ domain.OperatorCoverage) (domain.OperatorCoverage, error) {
			return domain.OperatorCoverage{}, fmt.Errorf("service.OperatorService.UpsertCoverage: %w: capacity.min must not exceed capacity.max", domain.ErrValidation)
		},
	}
	body := map[string]any{
		"base_location":      map[string]any{"name": "Sydney"},
		"coverage_radius_km": 50,
		"capacity":           map[string]any{"min": 60, "max": 10},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodPut, "/operators/"+uuid.New().String()+"/coverage", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "capacity.min must not exceed capacity.max", decode[handler.ErrorResponse](t, rec).Error.Message)
}

func TestGetCoverage_404(t *testing.T) {
	ops := &mockOperatorServicer{
		getCoverage: func(_ context.Context, _ uuid.UUID) (domain.OperatorCoverage, error) {
			return domain.OperatorCoverage{}, domain.ErrOperatorNotFound
		},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodGet, "/operators/"+uuid.New().String()+"/coverage", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCoverage_204(t *testing.T) {
	id := uuid.New()
	var deleted uuid.UUID
	ops := &mockOperatorServicer{
		deleteCoverage: func(_ context.Context, operatorID uuid.UUID) error {
			deleted = operatorID
			return nil
		},
	}

	rec := do(t, newHTTPHandler(nil, nil, ops), http.MethodDelete, "/operators/"+id.String()+"/coverage", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, deleted)
	assert.Empty(t, rec.Body.String())
}

func TestListEligibleRequests_200(t *testing.T) {
	operatorID := uuid.New()
	fixture := requestFixture(t, domain.StatusPublished)
	svc := &mockRequestServicer{
		listEligible: func(_ context.Context, id uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
			assert.Equal(t, operatorID, id)
			assert.Equal(t, domain.PaginationParams{Page: 1, Limit: 100}, p)
			return []domain.CharterRequest{fixture}, 1, nil
		},
	}

	rec := do(t, newHTTPHandler(svc, nil, nil), http.MethodGet, "/operators/"+operatorID.String()+"/requests?limit=500", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.RequestList](t, rec)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, fixture.ID, resp.Data[0].ID)
	assert.Equal(t, 100, resp.Pagination.Limit, "limit is capped")
}

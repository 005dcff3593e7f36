package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/handler"
	"github.com/pkordes/charter-broker/internal/matching"
)

// mockRequestServicer is a test double for handler.RequestServicer.
// Set only the method fields your test needs.
type mockRequestServicer struct {
	createDraft     func(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error)
	get             func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	list            func(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)
	listEligible    func(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error)
	history         func(ctx context.Context, id uuid.UUID) ([]domain.RequestEvent, error)
	matches         func(ctx context.Context, id uuid.UUID) ([]domain.Match, error)
	submitForReview func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	publish         func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, []matching.Eligible, error)
	acceptQuote     func(ctx context.Context, id, quoteID uuid.UUID) (domain.CharterRequest, error)
	complete        func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	cancel          func(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error)
	getUrgency      func(ctx context.Context, id uuid.UUID, now *time.Time) (domain.Urgency, error)
	rankedQuotes    func(ctx context.Context, id uuid.UUID) ([]domain.Quote, error)
}

func (m *mockRequestServicer) CreateDraft(ctx context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	return m.createDraft(ctx, req)
}
func (m *mockRequestServicer) Get(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	return m.get(ctx, id)
}
func (m *mockRequestServicer) List(ctx context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	return m.list(ctx, f, p)
}
func (m *mockRequestServicer) ListEligibleForOperator(ctx context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	return m.listEligible(ctx, operatorID, p)
}
func (m *mockRequestServicer) History(ctx context.Context, id uuid.UUID) ([]domain.RequestEvent, error) {
	return m.history(ctx, id)
}
func (m *mockRequestServicer) Matches(ctx context.Context, id uuid.UUID) ([]domain.Match, error) {
	return m.matches(ctx, id)
}
func (m *mockRequestServicer) SubmitForReview(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	return m.submitForReview(ctx, id)
}
func (m *mockRequestServicer) Publish(ctx context.Context, id uuid.UUID) (domain.CharterRequest, []matching.Eligible, error) {
	return m.publish(ctx, id)
}
func (m *mockRequestServicer) AcceptQuote(ctx context.Context, id, quoteID uuid.UUID) (domain.CharterRequest, error) {
	return m.acceptQuote(ctx, id, quoteID)
}
func (m *mockRequestServicer) Complete(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	return m.complete(ctx, id)
}
func (m *mockRequestServicer) Cancel(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	return m.cancel(ctx, id)
}
func (m *mockRequestServicer) GetUrgency(ctx context.Context, id uuid.UUID, now *time.Time) (domain.Urgency, error) {
	return m.getUrgency(ctx, id, now)
}
func (m *mockRequestServicer) GetRankedQuotes(ctx context.Context, id uuid.UUID) ([]domain.Quote, error) {
	return m.rankedQuotes(ctx, id)
}

type mockQuoteServicer struct {
	submit func(ctx context.Context, q domain.Quote) (domain.Quote, error)
}

func (m *mockQuoteServicer) SubmitQuote(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	return m.submit(ctx, q)
}

type mockOperatorServicer struct {
	create         func(ctx context.Context, op domain.Operator) (domain.Operator, error)
	get            func(ctx context.Context, id uuid.UUID) (domain.Operator, error)
	setActive      func(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error)
	upsertCoverage func(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error)
	getCoverage    func(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error)
	deleteCoverage func(ctx context.Context, operatorID uuid.UUID) error
}

func (m *mockOperatorServicer) CreateOperator(ctx context.Context, op domain.Operator) (domain.Operator, error) {
	return m.create(ctx, op)
}
func (m *mockOperatorServicer) GetOperator(ctx context.Context, id uuid.UUID) (domain.Operator, error) {
	return m.get(ctx, id)
}
func (m *mockOperatorServicer) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error) {
	return m.setActive(ctx, id, active)
}
func (m *mockOperatorServicer) UpsertCoverage(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error) {
	return m.upsertCoverage(ctx, c)
}
func (m *mockOperatorServicer) GetCoverage(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error) {
	return m.getCoverage(ctx, operatorID)
}
func (m *mockOperatorServicer) DeleteCoverage(ctx context.Context, operatorID uuid.UUID) error {
	return m.deleteCoverage(ctx, operatorID)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.RequestServicer  = (*mockRequestServicer)(nil)
	_ handler.QuoteServicer    = (*mockQuoteServicer)(nil)
	_ handler.OperatorServicer = (*mockOperatorServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into its chi router.
// This mirrors how main.go wires it in production.
func newHTTPHandler(requests handler.RequestServicer, quotes handler.QuoteServicer, operators handler.OperatorServicer) http.Handler {
	return handler.NewServer(requests, quotes, operators, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error.Code
}

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// requestFixture returns a request restored into status st. Published
// statuses carry a deadline 24h after t0.
func requestFixture(t *testing.T, st domain.Status) domain.CharterRequest {
	t.Helper()
	req := domain.NewDraft(domain.CharterRequest{
		ID:             uuid.New(),
		RequesterName:  "Ana Lima",
		RequesterEmail: "ana@example.com",
		Pickup:         domain.Location{RawInput: "Sydney CBD", Confidence: domain.ConfidenceHigh},
		Destination:    domain.Location{RawInput: "Canberra", Confidence: domain.ConfidenceMedium},
		PassengerCount: 30,
		DepartureAt:    t0.Add(72 * time.Hour),
		CreatedAt:      t0,
		UpdatedAt:      t0,
	})
	state := domain.LifecycleState{Status: st}
	if st != domain.StatusDraft && st != domain.StatusUnderReview {
		published := t0
		deadline := t0.Add(domain.QuoteWindow)
		state.PublishedAt, state.QuoteDeadline = &published, &deadline
	}
	require.NoError(t, req.Restore(state))
	return req
}

package service_test

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/repo"
)

// ---- in-memory store -------------------------------------------------------

// memState is one version of the stored data. Transactions work on a clone
// and swap it in on commit.
type memState struct {
	requests map[uuid.UUID]domain.CharterRequest
	quotes   []domain.Quote
	matches  []domain.Match
	events   []domain.RequestEvent
}

func (s *memState) clone() *memState {
	return &memState{
		requests: maps.Clone(s.requests),
		quotes:   slices.Clone(s.quotes),
		matches:  slices.Clone(s.matches),
		events:   slices.Clone(s.events),
	}
}

// memStore is an in-memory stand-in for Postgres: repo.Transactor plus the
// request-scoped repositories. Transactions are fully serialized.
type memStore struct {
	mu sync.Mutex
	st *memState
}

var _ repo.Transactor = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{st: &memState{requests: map[uuid.UUID]domain.CharterRequest{}}}
}

func (m *memStore) WithinRequest(ctx context.Context, id uuid.UUID, fn repo.RequestTxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	req, ok := m.st.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	staged := m.st.clone()
	if err := fn(ctx, reposFor(m, staged), req); err != nil {
		return err
	}
	m.st = staged
	return nil
}

// Repos returns repositories that operate outside any transaction.
func (m *memStore) Repos() repo.Repos { return reposFor(m, nil) }

func reposFor(m *memStore, tx *memState) repo.Repos {
	v := memView{store: m, tx: tx}
	return repo.Repos{
		Requests: memRequests{v},
		Quotes:   memQuotes{v},
		Matches:  memMatches{v},
		Events:   memEvents{v},
	}
}

// put seeds a request directly.
func (m *memStore) put(req domain.CharterRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.requests[req.ID] = req
}

func (m *memStore) quotesFor(id uuid.UUID) []domain.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Quote
	for _, q := range m.st.quotes {
		if q.RequestID == id {
			out = append(out, q)
		}
	}
	return out
}

func (m *memStore) matchesFor(id uuid.UUID) []domain.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Match
	for _, x := range m.st.matches {
		if x.RequestID == id {
			out = append(out, x)
		}
	}
	return out
}

func (m *memStore) eventsFor(id uuid.UUID) []domain.RequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RequestEvent
	for _, e := range m.st.events {
		if e.RequestID == id {
			out = append(out, e)
		}
	}
	return out
}

type memView struct {
	store *memStore
	tx    *memState
}

func (v memView) with(fn func(st *memState) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

type memRequests struct{ memView }

func (r memRequests) Create(_ context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	req.ID = uuid.New()
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	err := r.with(func(st *memState) error {
		st.requests[req.ID] = req
		return nil
	})
	return req, err
}

func (r memRequests) GetByID(_ context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	var req domain.CharterRequest
	err := r.with(func(st *memState) error {
		var ok bool
		if req, ok = st.requests[id]; !ok {
			return domain.ErrRequestNotFound
		}
		return nil
	})
	return req, err
}

func (r memRequests) LockByID(ctx context.Context, id uuid.UUID) (domain.CharterRequest, error) {
	return r.GetByID(ctx, id)
}

func (r memRequests) UpdateLifecycle(_ context.Context, req domain.CharterRequest) (domain.CharterRequest, error) {
	err := r.with(func(st *memState) error {
		if _, ok := st.requests[req.ID]; !ok {
			return domain.ErrRequestNotFound
		}
		st.requests[req.ID] = req
		return nil
	})
	return req, err
}

func (r memRequests) ListPaged(_ context.Context, f domain.RequestFilter, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	var all []domain.CharterRequest
	_ = r.with(func(st *memState) error {
		for _, req := range st.requests {
			if f.Status.IsZero() || req.Status() == f.Status {
				all = append(all, req)
			}
		}
		return nil
	})
	return page(all, p), int64(len(all)), nil
}

func (r memRequests) ListEligibleForOperator(_ context.Context, operatorID uuid.UUID, p domain.PaginationParams) ([]domain.CharterRequest, int64, error) {
	var all []domain.CharterRequest
	_ = r.with(func(st *memState) error {
		for _, m := range st.matches {
			if req := st.requests[m.RequestID]; m.OperatorID == operatorID && req.Status().Open() {
				all = append(all, req)
			}
		}
		return nil
	})
	return page(all, p), int64(len(all)), nil
}

func page(all []domain.CharterRequest, p domain.PaginationParams) []domain.CharterRequest {
	lo := min(p.Offset(), len(all))
	hi := min(lo+p.Limit, len(all))
	return append([]domain.CharterRequest{}, all[lo:hi]...)
}

type memQuotes struct{ memView }

func (r memQuotes) Create(_ context.Context, q domain.Quote) (domain.Quote, error) {
	err := r.with(func(st *memState) error {
		for _, existing := range st.quotes {
			if existing.RequestID == q.RequestID && existing.OperatorID == q.OperatorID {
				return domain.ErrDuplicateQuote
			}
		}
		q.ID = uuid.New()
		q.Status = domain.QuoteStatusPending
		q.CreatedAt = time.Now().UTC()
		st.quotes = append(st.quotes, q)
		return nil
	})
	return q, err
}

func (r memQuotes) GetByID(_ context.Context, requestID, quoteID uuid.UUID) (domain.Quote, error) {
	var found domain.Quote
	err := r.with(func(st *memState) error {
		for _, q := range st.quotes {
			if q.ID == quoteID && q.RequestID == requestID {
				found = q
				return nil
			}
		}
		return domain.ErrQuoteNotFound
	})
	return found, err
}

func (r memQuotes) ExistsForOperator(_ context.Context, requestID, operatorID uuid.UUID) (bool, error) {
	exists := false
	_ = r.with(func(st *memState) error {
		for _, q := range st.quotes {
			if q.RequestID == requestID && q.OperatorID == operatorID {
				exists = true
			}
		}
		return nil
	})
	return exists, nil
}

func (r memQuotes) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.Quote, error) {
	out := []domain.Quote{}
	_ = r.with(func(st *memState) error {
		for _, q := range st.quotes {
			if q.RequestID == requestID {
				out = append(out, q)
			}
		}
		return nil
	})
	return out, nil
}

func (r memQuotes) SettleAccepted(_ context.Context, requestID, acceptedID uuid.UUID) error {
	return r.with(func(st *memState) error {
		for i, q := range st.quotes {
			if q.RequestID != requestID {
				continue
			}
			if q.ID == acceptedID {
				st.quotes[i].Status = domain.QuoteStatusAccepted
			} else {
				st.quotes[i].Status = domain.QuoteStatusRejected
			}
		}
		return nil
	})
}

type memMatches struct{ memView }

func (r memMatches) InsertBatch(_ context.Context, matches []domain.Match) error {
	return r.with(func(st *memState) error {
		st.matches = append(st.matches, matches...)
		return nil
	})
}

func (r memMatches) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.Match, error) {
	out := []domain.Match{}
	_ = r.with(func(st *memState) error {
		for _, m := range st.matches {
			if m.RequestID == requestID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, nil
}

type memEvents struct{ memView }

func (r memEvents) Append(_ context.Context, requestID uuid.UUID, t domain.Transition) (domain.RequestEvent, error) {
	var ev domain.RequestEvent
	err := r.with(func(st *memState) error {
		ev = domain.RequestEvent{
			ID:        int64(len(st.events) + 1),
			RequestID: requestID,
			From:      t.From,
			To:        t.To,
			Event:     t.Event.String(),
			CreatedAt: t.At,
		}
		st.events = append(st.events, ev)
		return nil
	})
	return ev, err
}

func (r memEvents) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.RequestEvent, error) {
	out := []domain.RequestEvent{}
	_ = r.with(func(st *memState) error {
		for _, e := range st.events {
			if e.RequestID == requestID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, nil
}

// ---- func-field mocks ------------------------------------------------------

// mockOperatorRepo is a hand-written test double for repo.OperatorRepo.
type mockOperatorRepo struct {
	create    func(ctx context.Context, op domain.Operator) (domain.Operator, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.Operator, error)
	setActive func(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error)
}

func (m *mockOperatorRepo) Create(ctx context.Context, op domain.Operator) (domain.Operator, error) {
	return m.create(ctx, op)
}
func (m *mockOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Operator, error) {
	if m.getByID == nil {
		return domain.Operator{ID: id, Active: true}, nil
	}
	return m.getByID(ctx, id)
}
func (m *mockOperatorRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (domain.Operator, error) {
	return m.setActive(ctx, id, active)
}

// compile-time check: mockOperatorRepo must satisfy repo.OperatorRepo.
var _ repo.OperatorRepo = (*mockOperatorRepo)(nil)

// mockCoverageRepo is a hand-written test double for repo.CoverageRepo.
type mockCoverageRepo struct {
	upsert          func(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error)
	getByOperator   func(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error)
	delete          func(ctx context.Context, operatorID uuid.UUID) error
	activeCoverages func(ctx context.Context) ([]domain.OperatorCoverage, error)
}

func (m *mockCoverageRepo) Upsert(ctx context.Context, c domain.OperatorCoverage) (domain.OperatorCoverage, error) {
	return m.upsert(ctx, c)
}
func (m *mockCoverageRepo) GetByOperator(ctx context.Context, operatorID uuid.UUID) (domain.OperatorCoverage, error) {
	return m.getByOperator(ctx, operatorID)
}
func (m *mockCoverageRepo) Delete(ctx context.Context, operatorID uuid.UUID) error {
	return m.delete(ctx, operatorID)
}
func (m *mockCoverageRepo) ActiveCoverages(ctx context.Context) ([]domain.OperatorCoverage, error) {
	return m.activeCoverages(ctx)
}

// compile-time check: mockCoverageRepo must satisfy repo.CoverageRepo.
var _ repo.CoverageRepo = (*mockCoverageRepo)(nil)

// ---- helpers ---------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedClock returns a clock that always reads t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

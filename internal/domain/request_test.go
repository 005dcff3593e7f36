package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func draftFixture() domain.CharterRequest {
	return domain.NewDraft(domain.CharterRequest{
		ID:             uuid.New(),
		RequesterEmail: "sam@example.com",
		PassengerCount: 20,
	})
}

func underReview(t *testing.T) domain.CharterRequest {
	t.Helper()
	r := draftFixture()
	_, err := r.SubmitForReview(t0)
	require.NoError(t, err)
	return r
}

func TestCharterRequest_NewDraft(t *testing.T) {
	r := draftFixture()
	assert.Equal(t, domain.StatusDraft, r.Status())
	assert.Nil(t, r.PublishedAt())
	assert.Nil(t, r.QuoteDeadline())
}

// TestCharterRequest_Publish_SetsDeadline verifies that the quote deadline is
// exactly 24 hours after the publish instant.
func TestCharterRequest_Publish_SetsDeadline(t *testing.T) {
	r := underReview(t)
	now := t0.Add(time.Hour)

	tr, err := r.Publish(now)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnderReview, tr.From)
	assert.Equal(t, domain.StatusPublished, tr.To)
	require.NotNil(t, r.PublishedAt())
	require.NotNil(t, r.QuoteDeadline())
	assert.True(t, r.PublishedAt().Equal(now))
	assert.Equal(t, 24*time.Hour, r.QuoteDeadline().Sub(*r.PublishedAt()))
}

func TestCharterRequest_Publish_Twice(t *testing.T) {
	r := underReview(t)
	_, err := r.Publish(t0)
	require.NoError(t, err)
	first := *r.PublishedAt()

	_, err = r.Publish(t0.Add(time.Hour))

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, r.PublishedAt().Equal(first), "publishedAt must never be overwritten")
}

func TestCharterRequest_Publish_FromDraft(t *testing.T) {
	r := draftFixture()
	_, err := r.Publish(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusDraft, r.Status())
	assert.Nil(t, r.QuoteDeadline())
}

func TestCharterRequest_RecordQuote(t *testing.T) {
	r := underReview(t)
	_, err := r.Publish(t0)
	require.NoError(t, err)

	first, err := r.RecordQuote(t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, first.Changed())

	second, err := r.RecordQuote(t0.Add(2 * time.Minute))
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, domain.StatusQuotesReceived, r.Status())
}

func TestCharterRequest_Accept(t *testing.T) {
	r := underReview(t)
	_, _ = r.Publish(t0)
	_, _ = r.RecordQuote(t0)

	q := domain.Quote{ID: uuid.New(), RequestID: r.ID}
	_, err := r.Accept(q, t0)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, r.Status())
	require.NotNil(t, r.AcceptedQuoteID)
	assert.Equal(t, q.ID, *r.AcceptedQuoteID)
}

func TestCharterRequest_Accept_ForeignQuote(t *testing.T) {
	r := underReview(t)
	_, _ = r.Publish(t0)
	_, _ = r.RecordQuote(t0)

	_, err := r.Accept(domain.Quote{ID: uuid.New(), RequestID: uuid.New()}, t0)

	assert.ErrorIs(t, err, domain.ErrQuoteNotFound)
	assert.Equal(t, domain.StatusQuotesReceived, r.Status())
	assert.Nil(t, r.AcceptedQuoteID)
}

func TestCharterRequest_CompleteIsTerminal(t *testing.T) {
	r := underReview(t)
	_, _ = r.Publish(t0)
	_, _ = r.RecordQuote(t0)
	_, _ = r.Accept(domain.Quote{ID: uuid.New(), RequestID: r.ID}, t0)

	_, err := r.Complete(t0)
	require.NoError(t, err)
	require.NotNil(t, r.CompletedAt())

	_, err = r.Cancel(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusCompleted, r.Status())
}

func TestCharterRequest_Cancel(t *testing.T) {
	r := draftFixture()
	_, err := r.Cancel(t0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, r.Status())
	require.NotNil(t, r.CancelledAt())

	_, err = r.Cancel(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = r.SubmitForReview(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCharterRequest_RestoreRoundTrip(t *testing.T) {
	r := underReview(t)
	_, _ = r.Publish(t0)

	var loaded domain.CharterRequest
	require.NoError(t, loaded.Restore(r.Lifecycle()))

	assert.Equal(t, r.Status(), loaded.Status())
	assert.Equal(t, r.QuoteDeadline(), loaded.QuoteDeadline())
	assert.Error(t, loaded.Restore(domain.LifecycleState{}))
}

func TestConfidence_Text(t *testing.T) {
	c, err := domain.ParseConfidence("medium")
	require.NoError(t, err)
	assert.Equal(t, domain.ConfidenceMedium, c)

	b, err := domain.ConfidenceHigh.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "high", string(b))

	_, err = domain.ParseConfidence("certain")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = domain.Confidence(0).MarshalText()
	assert.Error(t, err)
}

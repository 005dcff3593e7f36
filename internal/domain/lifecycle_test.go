package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/charter-broker/internal/domain"
)

// TestNext_Publish verifies that publish is legal only from UnderReview.
func TestNext_Publish(t *testing.T) {
	for _, from := range domain.Statuses {
		to, err := domain.Next(from, domain.EventPublish)
		if from == domain.StatusUnderReview {
			require.NoError(t, err)
			assert.Equal(t, domain.StatusPublished, to)
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "publish from %s", from)
	}
}

func TestNext_Cancel(t *testing.T) {
	legal := map[domain.Status]bool{
		domain.StatusDraft:          true,
		domain.StatusUnderReview:    true,
		domain.StatusPublished:      true,
		domain.StatusQuotesReceived: true,
		domain.StatusAccepted:       true,
	}
	for _, from := range domain.Statuses {
		to, err := domain.Next(from, domain.EventCancel)
		if legal[from] {
			require.NoError(t, err, "cancel from %s", from)
			assert.Equal(t, domain.StatusCancelled, to)
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cancel from %s", from)
		}
	}
}

func TestNext_RecordQuoteIsIdempotent(t *testing.T) {
	to, err := domain.Next(domain.StatusPublished, domain.EventRecordQuote)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuotesReceived, to)

	to, err = domain.Next(domain.StatusQuotesReceived, domain.EventRecordQuote)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuotesReceived, to)

	_, err = domain.Next(domain.StatusAccepted, domain.EventRecordQuote)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// TestNext_CancelledIsFinal verifies that no event, including cancel, leaves
// Cancelled or Completed.
func TestNext_CancelledIsFinal(t *testing.T) {
	events := []domain.Event{
		domain.EventSubmitForReview, domain.EventPublish, domain.EventRecordQuote,
		domain.EventAccept, domain.EventComplete, domain.EventCancel,
	}
	for _, from := range []domain.Status{domain.StatusCancelled, domain.StatusCompleted} {
		for _, ev := range events {
			assert.False(t, domain.CanApply(from, ev), "%s from %s", ev, from)
		}
	}
}

func TestNext_ZeroStatusRejected(t *testing.T) {
	_, err := domain.Next(domain.Status{}, domain.EventSubmitForReview)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionError_Message(t *testing.T) {
	_, err := domain.Next(domain.StatusDraft, domain.EventPublish)

	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusDraft, te.From)
	assert.Equal(t, domain.EventPublish, te.Event)
	assert.Equal(t, "invalid transition: cannot publish from draft", err.Error())
}

func TestParseStatus(t *testing.T) {
	for _, s := range domain.Statuses {
		got, err := domain.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := domain.ParseStatus("expired")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
	"github.com/pkordes/charter-broker/internal/repo"
)

// RequesterNotifier tells a requester that a new quote arrived.
type RequesterNotifier interface {
	NotifyRequesterOfNewQuote(ctx context.Context, req domain.CharterRequest, q domain.Quote) error
}

// QuoteService accepts operator quotes against open requests.
type QuoteService struct {
	operators repo.OperatorRepo
	tx        repo.Transactor
	notifier  RequesterNotifier
	log       *slog.Logger
	now       func() time.Time
}

// NewQuoteService constructs a QuoteService. notifier may be nil, in which
// case quote notifications are skipped.
func NewQuoteService(operators repo.OperatorRepo, tx repo.Transactor, notifier RequesterNotifier, log *slog.Logger, now func() time.Time) *QuoteService {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = utcNow
	}
	return &QuoteService{operators: operators, tx: tx, notifier: notifier, log: log, now: now}
}

// SubmitQuote records an operator's quote on an open request and advances
// the request to QuotesReceived. The duplicate check and the insert run
// under the request lock, so of two concurrent submissions by the same
// operator the first wins and the second fails with domain.ErrDuplicateQuote.
//
// Returns domain.ErrValidation for a bad price or currency,
// domain.ErrOperatorNotFound for an unknown operator and
// domain.ErrInvalidTransition when the request is not accepting quotes.
func (s *QuoteService) SubmitQuote(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	q.Price.Currency = strings.ToUpper(strings.TrimSpace(q.Price.Currency))
	if err := validateQuote(q); err != nil {
		return domain.Quote{}, fmt.Errorf("service.QuoteService.SubmitQuote: %w", err)
	}
	if _, err := s.operators.GetByID(ctx, q.OperatorID); err != nil {
		return domain.Quote{}, fmt.Errorf("service.QuoteService.SubmitQuote: %w", err)
	}

	var (
		created domain.Quote
		saved   domain.CharterRequest
	)
	err := s.tx.WithinRequest(ctx, q.RequestID, func(ctx context.Context, tx repo.Repos, req domain.CharterRequest) error {
		t, err := req.RecordQuote(s.now())
		if err != nil {
			return err
		}
		exists, err := tx.Quotes.ExistsForOperator(ctx, req.ID, q.OperatorID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateQuote
		}
		if created, err = tx.Quotes.Create(ctx, q); err != nil {
			return err
		}

		saved = req
		if !t.Changed() {
			return nil
		}
		if saved, err = tx.Requests.UpdateLifecycle(ctx, req); err != nil {
			return err
		}
		_, err = tx.Events.Append(ctx, req.ID, t)
		return err
	})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("service.QuoteService.SubmitQuote: %w", err)
	}

	s.log.InfoContext(ctx, "quote received",
		"request_id", created.RequestID,
		"quote_id", created.ID,
		"operator_id", created.OperatorID,
	)
	if s.notifier != nil {
		if err := s.notifier.NotifyRequesterOfNewQuote(ctx, saved, created); err != nil {
			s.log.ErrorContext(ctx, "notify requester failed",
				"request_id", created.RequestID,
				"quote_id", created.ID,
				"error", err,
			)
		}
	}
	return created, nil
}

// validateQuote enforces a non-negative price in a three-letter currency.
func validateQuote(q domain.Quote) error {
	if q.RequestID == uuid.Nil || q.OperatorID == uuid.Nil {
		return fmt.Errorf("%w: request and operator are required", domain.ErrValidation)
	}
	if q.Price.Amount < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if len(q.Price.Currency) != 3 || strings.Trim(q.Price.Currency, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") != "" {
		return fmt.Errorf("%w: currency must be a three-letter ISO 4217 code", domain.ErrValidation)
	}
	return nil
}

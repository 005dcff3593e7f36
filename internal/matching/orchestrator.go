package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
)

// CoverageSource returns one consistent snapshot of the coverage rows of all
// active operators. Implementations must not assemble it row by row.
type CoverageSource interface {
	ActiveCoverages(ctx context.Context) ([]domain.OperatorCoverage, error)
}

// OperatorNotifier tells operators about a newly published request.
type OperatorNotifier interface {
	NotifyOperatorsOfPublishedRequest(ctx context.Context, req domain.CharterRequest, operatorIDs []uuid.UUID) error
}

// NoCoverageRecorder stores the "nobody can serve this request" signal.
type NoCoverageRecorder interface {
	RecordNoCoverage(ctx context.Context, requestID uuid.UUID, at time.Time) error
}

// Outcome is the result of matching one published request.
type Outcome struct {
	Eligible     []Eligible
	SnapshotSize int
}

// NoCoverage reports whether no operator was eligible.
func (o Outcome) NoCoverage() bool { return len(o.Eligible) == 0 }

// Orchestrator glues a published request to the matcher and the notifier.
// It never retries; a failed snapshot read is returned to the caller, which
// aborts the publish.
type Orchestrator struct {
	source   CoverageSource
	notifier OperatorNotifier
	signals  NoCoverageRecorder
	log      *slog.Logger
}

// NewOrchestrator constructs an Orchestrator. notifier and signals may be nil,
// in which case dispatch only logs.
func NewOrchestrator(source CoverageSource, notifier OperatorNotifier, signals NoCoverageRecorder, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{source: source, notifier: notifier, signals: signals, log: log}
}

// MatchPublished reads a coverage snapshot and matches req against it.
// req must already be in the Published status.
func (o *Orchestrator) MatchPublished(ctx context.Context, req domain.CharterRequest) (Outcome, error) {
	if req.Status() != domain.StatusPublished {
		return Outcome{}, fmt.Errorf("matching.Orchestrator.MatchPublished: request %s is %s: %w",
			req.ID, req.Status(), domain.ErrInvalidTransition)
	}
	snapshot, err := o.source.ActiveCoverages(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("matching.Orchestrator.MatchPublished: %w", err)
	}
	return Outcome{Eligible: Match(req, snapshot), SnapshotSize: len(snapshot)}, nil
}

// Dispatch hands a committed outcome to the notifier, or records the
// no-coverage signal when nobody matched. Collaborator failures are logged
// and swallowed: the publish has already been committed.
func (o *Orchestrator) Dispatch(ctx context.Context, req domain.CharterRequest, out Outcome) {
	if out.NoCoverage() {
		o.log.WarnContext(ctx, "no operator coverage for published request",
			"request_id", req.ID,
			"passenger_count", req.PassengerCount,
			"snapshot_size", out.SnapshotSize,
		)
		if o.signals == nil {
			return
		}
		at := time.Now().UTC()
		if p := req.PublishedAt(); p != nil {
			at = *p
		}
		if err := o.signals.RecordNoCoverage(ctx, req.ID, at); err != nil {
			o.log.ErrorContext(ctx, "record no-coverage signal failed", "request_id", req.ID, "error", err)
		}
		return
	}

	if o.notifier == nil {
		return
	}
	ids := OperatorIDs(out.Eligible)
	if err := o.notifier.NotifyOperatorsOfPublishedRequest(ctx, req, ids); err != nil {
		o.log.ErrorContext(ctx, "notify operators failed",
			"request_id", req.ID,
			"operators", len(ids),
			"error", err,
		)
		return
	}
	o.log.InfoContext(ctx, "operators notified", "request_id", req.ID, "operators", len(ids))
}

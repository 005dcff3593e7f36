package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/charter-broker/internal/domain"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers an email. Delivery internals live outside this service.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes each message to the structured log instead of sending it.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.log.InfoContext(ctx, "email", "to", m.To, "subject", m.Subject)
	return nil
}

// OperatorLookup resolves the operator a notification is addressed to.
type OperatorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Operator, error)
}

// Dispatcher turns events into emails.
type Dispatcher struct {
	operators OperatorLookup
	sender    Sender
	log       *slog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(operators OperatorLookup, sender Sender, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{operators: operators, sender: sender, log: log}
}

// Handle is a HandlerFunc. Unknown event types and operators that no longer
// exist are logged and skipped rather than blocking the partition.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	var (
		m   Message
		err error
	)
	switch ev.Type {
	case TypeRequestPublished:
		m, err = d.publishedMessage(ctx, ev)
	case TypeQuoteReceived:
		m = quoteMessage(ev)
	default:
		d.log.WarnContext(ctx, "unknown notification type", "type", ev.Type, "request_id", ev.RequestID)
		return nil
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.log.WarnContext(ctx, "notification recipient gone", "request_id", ev.RequestID, "operator_id", ev.OperatorID)
			return nil
		}
		return fmt.Errorf("notify.Dispatcher.Handle: %w", err)
	}
	if err := d.sender.Send(ctx, m); err != nil {
		return fmt.Errorf("notify.Dispatcher.Handle: send: %w", err)
	}
	return nil
}

func (d *Dispatcher) publishedMessage(ctx context.Context, ev Event) (Message, error) {
	op, err := d.operators.GetByID(ctx, ev.OperatorID)
	if err != nil {
		return Message{}, err
	}
	body := fmt.Sprintf("A charter for %d passengers from %s to %s is open for quotes.",
		ev.PassengerCount, ev.PickupName, ev.DestinationName)
	if ev.DepartureAt != nil {
		body += "\nDeparture: " + ev.DepartureAt.Format(time.RFC1123)
	}
	if ev.QuoteDeadline != nil {
		body += "\nQuote by: " + ev.QuoteDeadline.Format(time.RFC1123)
	}
	return Message{
		To:      op.Email,
		Subject: fmt.Sprintf("New charter request %s", ev.RequestID),
		Body:    body,
	}, nil
}

func quoteMessage(ev Event) Message {
	greeting := "Hello"
	if ev.RequesterName != "" {
		greeting += " " + ev.RequesterName
	}
	return Message{
		To:      ev.RequesterEmail,
		Subject: "You have a new quote for your charter",
		Body: fmt.Sprintf("%s,\n\nAn operator quoted %s for request %s.",
			greeting, formatMoney(ev.PriceAmount, ev.Currency), ev.RequestID),
	}
}

// formatMoney renders minor units with two decimals.
func formatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, currency, amount/100, amount%100)
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/pkordes/charter-broker/internal/domain"
)

// messageWriter is the subset of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes notification events to one Kafka topic. It implements
// matching.OperatorNotifier and service.RequesterNotifier.
type Producer struct {
	writer messageWriter
	log    *slog.Logger
	now    func() time.Time
}

// NewProducer returns a synchronous producer for topic. Messages are keyed
// by request id so all events of one request land on one partition in order.
func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return newProducer(w, log)
}

func newProducer(w messageWriter, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	return &Producer{writer: w, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// NotifyOperatorsOfPublishedRequest writes one request.published event per
// operator in a single batch.
func (p *Producer) NotifyOperatorsOfPublishedRequest(ctx context.Context, req domain.CharterRequest, operatorIDs []uuid.UUID) error {
	if len(operatorIDs) == 0 {
		return nil
	}
	at := p.now()
	departure := req.DepartureAt
	msgs := make([]kafka.Message, 0, len(operatorIDs))
	for _, id := range operatorIDs {
		msg, err := message(Event{
			Type:            TypeRequestPublished,
			RequestID:       req.ID,
			At:              at,
			OperatorID:      id,
			PickupName:      locationName(req.Pickup),
			DestinationName: locationName(req.Destination),
			PassengerCount:  req.PassengerCount,
			DepartureAt:     &departure,
			QuoteDeadline:   req.QuoteDeadline(),
		})
		if err != nil {
			return fmt.Errorf("notify.Producer.NotifyOperatorsOfPublishedRequest: %w", err)
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("notify.Producer.NotifyOperatorsOfPublishedRequest: %w", err)
	}
	p.log.DebugContext(ctx, "published request events written", "request_id", req.ID, "messages", len(msgs))
	return nil
}

// NotifyRequesterOfNewQuote writes one quote.received event.
func (p *Producer) NotifyRequesterOfNewQuote(ctx context.Context, req domain.CharterRequest, q domain.Quote) error {
	msg, err := message(Event{
		Type:           TypeQuoteReceived,
		RequestID:      req.ID,
		At:             p.now(),
		OperatorID:     q.OperatorID,
		QuoteDeadline:  req.QuoteDeadline(),
		QuoteID:        q.ID,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		PriceAmount:    q.Price.Amount,
		Currency:       q.Price.Currency,
	})
	if err != nil {
		return fmt.Errorf("notify.Producer.NotifyRequesterOfNewQuote: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify.Producer.NotifyRequesterOfNewQuote: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func message(ev Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	return kafka.Message{
		Key:   []byte(ev.RequestID.String()),
		Value: data,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}, nil
}

func locationName(l domain.Location) string {
	if l.ResolvedName != "" {
		return l.ResolvedName
	}
	return l.RawInput
}

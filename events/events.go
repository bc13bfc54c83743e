// Package events publishes domain events about the booking lifecycle to a
// message broker. Publishing is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	PaymentRecorded   = "payment.recorded"
	PaymentSettled    = "payment.settled"
	PaymentConflicted = "payment.conflicted"
	BookingCreated    = "booking.created"
	BookingCancelled  = "booking.cancelled"
	CartAdded         = "cart.added"
	CartCancelled     = "cart.cancelled"
	CartRemoved       = "cart.removed"
	RoomStatusChanged = "room.status_changed"
	RoomDeleted       = "room.deleted"
)

type Envelope struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
	Close() error
}

func newEnvelope(eventType string, data any) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

func encode(eventType string, data any) ([]byte, error) {
	return json.Marshal(newEnvelope(eventType, data))
}

// Log writes events to the logger instead of a broker.
type Log struct {
	log *logrus.Entry
}

func NewLog(log *logrus.Entry) *Log {
	return &Log{log: log}
}

func (l *Log) Publish(_ context.Context, eventType string, data any) error {
	b, err := encode(eventType, data)
	if err != nil {
		return err
	}
	l.log.WithField("event", eventType).Debug(string(b))
	return nil
}

func (l *Log) Close() error { return nil }

// Emit publishes and logs a failure without returning it.
func Emit(ctx context.Context, p Publisher, log *logrus.Entry, eventType string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, eventType, data); err != nil {
		log.WithError(err).WithField("event", eventType).Warn("publish event")
	}
}

package amqp

import (
	"context"
	"fmt"
	"time"

	"datajobs/internal/events"
	"datajobs/internal/log"

	"github.com/rabbitmq/amqp091-go"
)

// newPublishing wraps a snapshot event in a persistent JSON message.
func newPublishing(evt events.SnapshotEvent) (amqp091.Publishing, error) {
	body, err := evt.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    evt.ID,
		Type:         events.SnapshotSubject,
		Timestamp:    ts,
		Body:         body,
	}, nil
}

// outcome is what to tell the broker about a delivery.
type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

func (o outcome) String() string {
	switch o {
	case ack:
		return "ack"
	case drop:
		return "drop"
	default:
		return "requeue"
	}
}

// dispatch decodes body and runs handler on it.
func dispatch(ctx context.Context, logger *log.Logger, body []byte, handler SnapshotHandler) outcome {
	evt, err := events.SnapshotEventFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
		return drop
	}

	logger.InfoContext(ctx, "Processing snapshot event", log.FieldSnapshotID, evt.ID, "path", evt.Path)

	if err := handler(ctx, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to handle message", log.FieldSnapshotID, evt.ID, log.FieldError, err)
		return requeue
	}

	logger.InfoContext(ctx, "Successfully processed snapshot event", log.FieldSnapshotID, evt.ID)
	return ack
}

// acknowledger is the part of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(d acknowledger, o outcome) error {
	switch o {
	case ack:
		return d.Ack(false)
	case drop:
		return d.Nack(false, false)
	default:
		return d.Nack(false, true)
	}
}

// Package nats publishes snapshot events on a NATS subject.
package nats

import (
	"context"
	"fmt"
	"time"

	"datajobs/internal/events"
	"datajobs/internal/log"

	"github.com/nats-io/nats.go"
)

type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *log.Logger
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(url, subject string, logger *log.Logger) (*Publisher, error) {
	if subject == "" {
		subject = events.SnapshotSubject
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentNATS)

	conn, err := nats.Connect(url,
		nats.Name("datajobs"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", log.FieldError, err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &Publisher{conn: conn, subject: subject, logger: logger}, nil
}

func (p *Publisher) PublishSnapshot(ctx context.Context, evt events.SnapshotEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := evt.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal snapshot event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	p.logger.DebugContext(ctx, "Published snapshot event", log.FieldSnapshotID, evt.ID, "subject", p.subject)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

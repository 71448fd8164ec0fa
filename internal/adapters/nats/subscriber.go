package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/escaduto/spotospot/internal/core/domain"
)

// Subscriber consumes interaction intents and update broadcasts.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeIntents delivers every interaction intent to handler, with
// at-least-once semantics.
func (s *Subscriber) SubscribeIntents(ctx context.Context, handler func(ctx context.Context, intent domain.Intent) error) error {
	sub, err := s.js.Subscribe("trip.intent.>", func(msg *nats.Msg) {
		var intent domain.Intent
		if err := json.Unmarshal(msg.Data, &intent); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, intent); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("intent-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeBroadcasts delivers cross-instance layer-update frames.
func (s *Subscriber) SubscribeBroadcasts(handler func(data []byte)) error {
	sub, err := s.conn.Subscribe("trip.updates.broadcast", func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

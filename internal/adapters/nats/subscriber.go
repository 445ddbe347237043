package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
	"github.com/krishisahayak/krishi/internal/pkg/logging"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

var _ ports.EventSubscriber = (*Subscriber)(nil)

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeLandRegistered delivers each registration to handler. A handler
// error naks the message for redelivery; malformed messages are terminated.
func (s *Subscriber) SubscribeLandRegistered(ctx context.Context, handler func(ctx context.Context, event *domain.LandRegistered) error) error {
	sub, err := s.js.Subscribe(SubjectLandRegistered, func(msg *nats.Msg) {
		switch dispatchLandRegistered(ctx, msg.Data, handler) {
		case dispositionTerm:
			_ = msg.Term()
		case dispositionNak:
			_ = msg.Nak()
		default:
			_ = msg.Ack()
		}
	},
		nats.Durable("land-followup"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

type disposition int

const (
	dispositionAck disposition = iota
	dispositionNak
	dispositionTerm
)

func dispatchLandRegistered(ctx context.Context, data []byte, handler func(ctx context.Context, event *domain.LandRegistered) error) disposition {
	log := logging.FromContext(ctx)
	var event domain.LandRegistered
	if err := json.Unmarshal(data, &event); err != nil {
		log.Error("malformed land registration", "error", err)
		return dispositionTerm
	}
	if err := handler(ctx, &event); err != nil {
		log.Warn("land registration handler failed", "registration_id", event.Registration.ID, "error", err)
		return dispositionNak
	}
	return dispositionAck
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

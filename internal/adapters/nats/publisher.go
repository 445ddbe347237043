package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/krishisahayak/krishi/internal/core/domain"
	"github.com/krishisahayak/krishi/internal/core/ports"
)

// Subjects.
const (
	SubjectLandRegistered = "krishi.land.registered"
	subjectCapturePrefix  = "krishi.capture."
)

// LandEventsMaxAge bounds how long a registration event, and the bearer token
// it carries, stays in the stream. The onboarder consumes events as they
// arrive, so an event older than this is not worth starting a follow-up for.
const LandEventsMaxAge = time.Hour

// CaptureAreaSubject is where emitted areas of one capture session are published.
func CaptureAreaSubject(captureID string) string {
	return subjectCapturePrefix + captureID + ".area"
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	for _, cfg := range streamConfigs() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func streamConfigs() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "LAND_CAPTURES",
			Subjects:  []string{subjectCapturePrefix + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:       "LAND_EVENTS",
			Subjects:   []string{"krishi.land.>"},
			Retention:  nats.WorkQueuePolicy,
			MaxAge:     LandEventsMaxAge,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		},
	}
}

func (p *Publisher) PublishAreaCaptured(ctx context.Context, captureID string, area *domain.DrawnArea) error {
	data, err := json.Marshal(area)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(CaptureAreaSubject(captureID), data, nats.Context(ctx))
	return err
}

// PublishLandRegistered publishes with the registration id as message id, so
// a retried publish is deduplicated by the stream.
func (p *Publisher) PublishLandRegistered(ctx context.Context, event *domain.LandRegistered) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectLandRegistered, data, nats.Context(ctx), nats.MsgId(event.Registration.ID))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

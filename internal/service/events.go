package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const subjectTestFinalized = "school.tests.finalized"

// TestFinalizedEvent is broadcast after a test's scores are folded into the
// term reports.
type TestFinalizedEvent struct {
	EventID     string    `json:"event_id"`
	TestID      uint      `json:"test_id"`
	TermID      uint      `json:"term_id"`
	StandardID  uint      `json:"standard_id"`
	TestType    string    `json:"test_type"`
	FinalizedBy uint      `json:"finalized_by"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	SentAt      time.Time `json:"sent_at"`
}

// EventPublisher pushes domain events onto the message bus. Publish failures
// are logged, never surfaced: events carry notifications, not state.
type EventPublisher interface {
	TestFinalized(event TestFinalizedEvent)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// turns every publish into a no-op.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) TestFinalized(event TestFinalizedEvent) {
	if p.conn == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Uint("test_id", event.TestID).Msg("failed to encode test finalized event")
		return
	}
	if err := p.conn.Publish(subjectTestFinalized, payload); err != nil {
		p.logger.Warn().Err(err).Uint("test_id", event.TestID).Msg("failed to publish test finalized event")
	}
}

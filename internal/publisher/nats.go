// Package publisher sends bot events to NATS.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/blockedby/megamd/internal/bot"
)

// SubjectCommandExecuted receives one message per executed command.
const SubjectCommandExecuted = "bot.commands.executed"

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher implements bot.EventPublisher
type NATSPublisher struct {
	nc   NATSClient
	conn *nats.Conn
}

// Connect dials natsURL and returns a publisher owning the connection.
func Connect(natsURL string) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL, nats.Name("megamd-bot"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{nc: conn, conn: conn}, nil
}

// NewNATSPublisher creates a publisher on an existing client.
func NewNATSPublisher(nc NATSClient) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// PublishCommandExecuted publishes a command event.
func (p *NATSPublisher) PublishCommandExecuted(_ context.Context, event bot.CommandEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nc.Publish(SubjectCommandExecuted, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// IsConnected reports the state of an owned connection; injected clients count as connected.
func (p *NATSPublisher) IsConnected() bool {
	if p.conn == nil {
		return true
	}
	return p.conn.IsConnected()
}

// Close drains and closes an owned connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Package notify publishes generation lifecycle events to NATS JetStream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wadakatu/gitlyte/internal/config"
)

// Notifier manages the NATS connection used for lifecycle events.
type Notifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNotifier creates a new NATS notifier from config.
func NewNotifier(cfg *config.NotifyConfig) (*Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notify config is required")
	}

	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	// Connect to NATS
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS notifier initialized",
		"url", cfg.URL,
		"subject", cfg.Subject)

	return &Notifier{
		conn:    conn,
		js:      js,
		subject: cfg.Subject,
	}, nil
}

// Publish sends a lifecycle event on <subject>.<status>.
// A nil notifier is a no-op so callers do not branch on whether
// notifications are enabled.
func (n *Notifier) Publish(event *GenerationEvent) error {
	if n == nil || n.js == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := n.subject + "." + event.Status
	_, err = n.js.Publish(ctx, subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published generation event",
		"subject", subject,
		"job_id", event.JobID,
		"repository", event.Repository)

	return nil
}

// Close closes the NATS connection.
func (n *Notifier) Close() error {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
	return nil
}

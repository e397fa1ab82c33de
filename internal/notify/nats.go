// Package notify publishes build cycle summaries to NATS so editors and other
// tools can react when the output tree changes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/pipeline"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "twm.cycles"

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSPublisher implements engine.CycleSink on a core NATS connection.
type NATSPublisher struct {
	conn    conn
	subject string
	flush   time.Duration
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	nc, err := nats.Connect(url, nats.Name("twm"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := newPublisher(nc, subject)
	slog.Info("NATS publisher initialized", "url", url, "subject", p.subject)
	return p, nil
}

func newPublisher(c conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject, flush: 2 * time.Second}
}

// Subject returns the subject summaries are published on. Full and scoped
// cycles go to Subject()+".full" and Subject()+".scoped".
func (p *NATSPublisher) Subject() string { return p.subject }

// Record implements engine.CycleSink.
func (p *NATSPublisher) Record(ctx context.Context, s pipeline.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	subj := p.subject + "." + string(s.Kind)
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	timeout := p.flush
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if err := p.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	slog.Debug("Published cycle summary", logfields.CycleID(s.ID), "subject", subj)
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}

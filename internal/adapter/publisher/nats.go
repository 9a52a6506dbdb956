// Package publisher broadcasts computed trust scores over NATS.
package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hive-corporation/trustscore/internal/core/ports"
)

// DefaultSubject is the subject score events are published on.
const DefaultSubject = "trustscore.computed"

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(url, token, subject string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("trustscore"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("⚠️  NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("✅ NATS reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return newPublisher(nc, subject), nil
}

func newPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: nc, subject: subject}
}

// PublishScore publishes event as JSON on <subject>.<source>.
func (p *NATSPublisher) PublishScore(event ports.ScoreEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal score event: %w", err)
	}
	return p.conn.Publish(p.subjectFor(event), payload)
}

func (p *NATSPublisher) subjectFor(event ports.ScoreEvent) string {
	if event.Source == "" {
		return p.subject
	}
	return p.subject + "." + event.Source
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

//go:build integration

package publisher

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/hive-corporation/trustscore/internal/core/ports"
)

func TestIntegration_PublishScore(t *testing.T) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}

	p, err := NewNATSPublisher(natsURL, "", "trustscore.test")
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer p.Close()

	sub, err := p.conn.SubscribeSync("trustscore.test.>")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	event := ports.ScoreEvent{Domain: "example.com", TrustScore: 7.3, ReviewCount: 12, Limit: 300, Source: "trustpilot", ComputedAt: time.Now().UTC()}
	if err := p.PublishScore(event); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	var msg *nats.Msg
	if msg, err = sub.NextMsg(5 * time.Second); err != nil {
		t.Fatalf("timed out waiting for message: %v", err)
	}
	if msg.Subject != "trustscore.test.trustpilot" {
		t.Errorf("unexpected subject %s", msg.Subject)
	}

	var got ports.ScoreEvent
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.Domain != "example.com" || got.TrustScore != 7.3 {
		t.Errorf("unexpected event %+v", got)
	}
}

package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hive-corporation/trustscore/internal/core/ports"
)

func testAlert() ports.LowTrustScoreAlert {
	return ports.LowTrustScoreAlert{
		Domain:      "example.com",
		TrustScore:  2.36,
		Threshold:   3,
		ReviewCount: 42,
		Limit:       300,
		Source:      "trustpilot",
	}
}

func TestSlackNotifier_NotifyLowTrustScore(t *testing.T) {
	var got SlackMessage
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "#trust-alerts", "@trust-team")
	n.apiURL = server.URL

	if err := n.NotifyLowTrustScore(context.Background(), testAlert()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth != "Bearer xoxb-test" {
		t.Errorf("expected bearer token, got %q", auth)
	}
	if got.Channel != "#trust-alerts" {
		t.Errorf("expected channel #trust-alerts, got %q", got.Channel)
	}
	if !strings.Contains(got.Text, "example.com") || !strings.Contains(got.Text, "2.4") {
		t.Errorf("unexpected fallback text %q", got.Text)
	}
	if len(got.Blocks) != 4 {
		t.Fatalf("expected 4 blocks with a team mention, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Type != "header" {
		t.Errorf("expected header block first, got %s", got.Blocks[0].Type)
	}
}

func TestSlackNotifier_BlocksWithoutMention(t *testing.T) {
	n := NewSlackNotifier("xoxb-test", "#trust-alerts", "")

	blocks := n.buildLowTrustScoreBlocks(testAlert())
	if len(blocks) != 3 {
		t.Errorf("expected 3 blocks without a mention, got %d", len(blocks))
	}

	fields := blocks[1].Fields
	if len(fields) != 4 || !strings.Contains(fields[3].Text, "42 scored (limit 300)") {
		t.Errorf("unexpected fields %+v", fields)
	}
}

func TestSlackNotifier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusInternalServerError, "", "status 500"},
		{"api error", http.StatusOK, `{"ok": false, "error": "channel_not_found"}`, "channel_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			n := NewSlackNotifier("xoxb-test", "#trust-alerts", "")
			n.apiURL = server.URL

			err := n.NotifyLowTrustScore(context.Background(), testAlert())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSlackNotifier_CancelledContext(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	n := NewSlackNotifier("xoxb-test", "#trust-alerts", "")
	n.apiURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.NotifyLowTrustScore(ctx, testAlert())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no request to reach Slack, got %d", calls)
	}
}

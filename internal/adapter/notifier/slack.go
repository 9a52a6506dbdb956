package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hive-corporation/trustscore/internal/core/ports"
)

const defaultSlackAPIURL = "https://slack.com/api/chat.postMessage"

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	apiURL      string
	httpClient  *http.Client
}

func NewSlackNotifier(botToken, channel, mentionTeam string) *SlackNotifier {
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		apiURL:      defaultSlackAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyLowTrustScore sends an alert for a domain scored below the threshold
func (s *SlackNotifier) NotifyLowTrustScore(ctx context.Context, alert ports.LowTrustScoreAlert) error {
	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  s.buildLowTrustScoreBlocks(alert),
		Text:    fmt.Sprintf("📉 Low trust score for %s: %.1f", alert.Domain, alert.TrustScore),
	}

	return s.sendMessage(ctx, payload)
}

func (s *SlackNotifier) buildLowTrustScoreBlocks(alert ports.LowTrustScoreAlert) []SlackBlock {
	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "📉 Low Trust Score",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Domain*\n`%s`", alert.Domain)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Trust Score*\n%.1f / 10", alert.TrustScore)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Threshold*\n%.1f", alert.Threshold)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Reviews*\n%d scored (limit %d)", alert.ReviewCount, alert.Limit)},
			},
		},
		{
			Type: "context",
			Elements: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("Source: *%s*", alert.Source)},
			},
		},
	}

	if s.mentionTeam != "" {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("🔔 %s", s.mentionTeam),
			},
		})
	}

	return blocks
}

// Send message to Slack
func (s *SlackNotifier) sendMessage(ctx context.Context, msg SlackMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	// chat.postMessage reports most failures with a 200 and ok=false
	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return fmt.Errorf("slack API error: %s", result.Error)
	}

	return nil
}

// Slack API structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Blocks  []SlackBlock `json:"blocks"`
	Text    string       `json:"text"` // Fallback text
}

type SlackBlock struct {
	Type     string      `json:"type"`
	Text     *SlackText  `json:"text,omitempty"`
	Fields   []SlackText `json:"fields,omitempty"`
	Elements []SlackText `json:"elements,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

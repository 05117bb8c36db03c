package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vcavallo/dcf-estimate/alerts"
	"github.com/vcavallo/dcf-estimate/config"
	"github.com/vcavallo/dcf-estimate/report"
	"github.com/vcavallo/dcf-estimate/valuation"
)

// Sender sends notifications to ntfy
type Sender struct {
	cfg        config.NtfyConfig
	httpClient *http.Client
}

// notification represents the JSON payload for ntfy
type notification struct {
	Topic    string   `json:"topic"`
	Message  string   `json:"message"`
	Title    string   `json:"title,omitempty"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// NewSender creates a new ntfy sender
func NewSender(cfg config.NtfyConfig) *Sender {
	return &Sender{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send sends a notification to ntfy
func (s *Sender) Send(ctx context.Context, title, message string, tags []string) error {
	notif := notification{
		Topic:    s.cfg.Topic,
		Message:  message,
		Title:    title,
		Priority: s.cfg.Priority,
		Tags:     tags,
	}

	body, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Server, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	s.addAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	return nil
}

// addAuth adds authentication headers based on configuration
func (s *Sender) addAuth(req *http.Request) {
	// Token auth takes precedence
	if s.cfg.Token != "" && !strings.Contains(s.cfg.Token, "${") {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
		return
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	}
}

// FormatValuation builds the title, body and tags for an estimate. signal
// may be nil when no market comparison was made.
func FormatValuation(est *valuation.Estimate, signal *alerts.Signal) (title, message string, tags []string) {
	title = fmt.Sprintf("📈 %s DCF estimate", est.Ticker)

	lines := []string{
		fmt.Sprintf("Latest FCF: %s", report.Millions(est.LatestFCF)),
		fmt.Sprintf("Growth rate: %s", report.Percent(est.GrowthRate)),
		fmt.Sprintf("DCF value: %s", report.Millions(est.PresentValue)),
	}
	if est.PerShare != nil {
		lines = append(lines, fmt.Sprintf("Per share: $%.2f", *est.PerShare))
	}
	if signal != nil {
		lines = append(lines, "", signal.Message)
	}
	lines = append(lines, est.Notices...)

	tags = []string{"chart_with_upwards_trend", est.Ticker}
	if signal != nil && signal.Triggered() {
		tags = append(tags, string(signal.Verdict))
	}

	return title, strings.Join(lines, "\n"), tags
}

// SendValuation publishes an estimate and its market verdict
func (s *Sender) SendValuation(ctx context.Context, est *valuation.Estimate, signal *alerts.Signal) error {
	title, message, tags := FormatValuation(est, signal)
	return s.Send(ctx, title, message, tags)
}

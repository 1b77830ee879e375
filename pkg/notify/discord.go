package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dosetrack-inc/dosetrack-engine/pkg/config"
	"github.com/dosetrack-inc/dosetrack-engine/pkg/models"
)

const (
	colorGreen  = 0x2ECC71
	colorRed    = 0xE74C3C
	colorYellow = 0xF1C40F

	webhookTimeout = 10 * time.Second
)

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields,omitempty"`
	Timestamp string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordNotifier posts check outcomes to a Discord-compatible webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

var _ CheckNotifier = (*DiscordNotifier)(nil)

// NewCheckNotifier returns a webhook-backed notifier when monitoring is
// configured, and a no-op notifier otherwise.
func NewCheckNotifier(cfg config.MonitoringConfig, logger *zap.Logger) CheckNotifier {
	if !cfg.IsAvailable() {
		logger.Info("Monitoring webhook not configured, check notifications disabled")
		return NewNoopNotifier()
	}

	return &DiscordNotifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		logger:     logger.Named("notify"),
	}
}

func (n *DiscordNotifier) CheckCompleted(ctx context.Context, metrics *models.InteractionCheckMetrics) {
	fields := []embedField{
		{Name: "Medication", Value: metrics.MedicationName, Inline: true},
		{Name: "Pairs checked", Value: fmt.Sprintf("%d", metrics.CheckedCount), Inline: true},
		{Name: "Interactions found", Value: fmt.Sprintf("%d", metrics.FoundCount), Inline: true},
	}
	if metrics.FoundCount > 0 {
		fields = append(fields, embedField{
			Name:   "Severity",
			Value:  fmt.Sprintf("%d severe, %d moderate", metrics.SevereCount, metrics.ModerateCount),
			Inline: true,
		})
		fields = append(fields, embedField{
			Name:   "Alerts created",
			Value:  fmt.Sprintf("%d", metrics.AlertsCreated),
			Inline: true,
		})
	}
	fields = append(fields,
		embedField{Name: "Model", Value: metrics.Model, Inline: true},
		embedField{Name: "Tokens", Value: fmt.Sprintf("%d", metrics.TokenUsage.TotalTokens), Inline: true},
		embedField{Name: "Duration", Value: metrics.Duration.Round(time.Millisecond).String(), Inline: true},
	)

	n.post(ctx, embed{
		Title:  "Interaction check completed",
		Color:  colorGreen,
		Fields: fields,
	})
}

func (n *DiscordNotifier) CheckFailed(ctx context.Context, medicationName string, checkErr error, attemptedCount int) {
	errMsg := "unknown error"
	if checkErr != nil {
		errMsg = checkErr.Error()
	}
	if len(errMsg) > 1000 {
		errMsg = errMsg[:1000]
	}

	n.post(ctx, embed{
		Title: "Interaction check failed",
		Color: colorRed,
		Fields: []embedField{
			{Name: "Medication", Value: medicationName, Inline: true},
			{Name: "Pairs attempted", Value: fmt.Sprintf("%d", attemptedCount), Inline: true},
			{Name: "Error", Value: errMsg},
		},
	})
}

func (n *DiscordNotifier) CheckSkipped(ctx context.Context, medicationName string, reason string) {
	n.post(ctx, embed{
		Title: "Interaction check skipped",
		Color: colorYellow,
		Fields: []embedField{
			{Name: "Medication", Value: medicationName, Inline: true},
			{Name: "Reason", Value: reason, Inline: true},
		},
	})
}

// post delivers a single embed. Failures are logged, never returned: a broken
// webhook must not fail the check that produced the notification.
func (n *DiscordNotifier) post(ctx context.Context, e embed) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		n.logger.Error("Failed to marshal webhook payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("Failed to build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Failed to deliver check notification", zap.Error(err))
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		n.logger.Warn("Webhook rejected check notification",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
	}
}

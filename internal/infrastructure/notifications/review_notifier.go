package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/entities"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/domain/providers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/pkg/config"
)

// WebhookReviewNotifier posts review alerts to the configured webhook. With
// no URL configured it is a no-op, so the pipeline never depends on it.
type WebhookReviewNotifier struct {
	webhookURL string
	token      string
	httpClient *http.Client
}

var _ providers.ReviewNotifier = (*WebhookReviewNotifier)(nil)

// NewWebhookReviewNotifier creates a review notifier from configuration.
func NewWebhookReviewNotifier(cfg *config.ReviewConfig) *WebhookReviewNotifier {
	notifier := &WebhookReviewNotifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if cfg != nil {
		notifier.webhookURL = cfg.WebhookURL
		notifier.token = cfg.Token
	}
	return notifier
}

// IsEnabled reports whether a webhook URL is configured.
func (n *WebhookReviewNotifier) IsEnabled() bool {
	return n.webhookURL != ""
}

// reviewAlert is the webhook payload for a flagged recommendation.
type reviewAlert struct {
	RecordID  string    `json:"record_id"`
	StudyID   string    `json:"study_id"`
	Location  string    `json:"location"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyFlagged sends a review alert for a sentinel record.
func (n *WebhookReviewNotifier) NotifyFlagged(ctx context.Context, record *entities.RecommendationRecord) error {
	if !n.IsEnabled() {
		return nil
	}
	if record == nil {
		return fmt.Errorf("record is required")
	}

	alert := reviewAlert{
		RecordID:  record.ID,
		StudyID:   record.Case.StudyID,
		Location:  record.Case.Location,
		Reason:    record.FailureReason,
		Timestamp: time.Now().UTC(),
	}

	jsonData, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal review alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send review alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("review webhook error (status %d): %s", resp.StatusCode, string(body))
	}

	log.Info().
		Str("record_id", record.ID).
		Str("study_id", record.Case.StudyID).
		Msg("Sent review alert")
	return nil
}

package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fekuna/omnipos-production-service/internal/model"
)

// WebhookNotifier posts each summary as JSON to a fixed URL.
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
}

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &WebhookNotifier{httpClient: client, url: url}
}

type webhookPayload struct {
	Event   string                   `json:"event"`
	Summary *model.ProductionSummary `json:"summary"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, summary *model.ProductionSummary) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(webhookPayload{Event: "production.daily_summary", Summary: summary}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("send production summary: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook rejected production summary: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
)

const webhookTimeout = 10 * time.Second

// WebhookProvider posts message batches as Discord embeds.
type WebhookProvider struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	Embeds          model.Batch     `json:"embeds"`
	AllowedMentions allowedMentions `json:"allowed_mentions"`
}

type allowedMentions struct {
	Parse []string `json:"parse"`
}

// NewWebhook creates a new Discord webhook provider.
func NewWebhook(url string) *WebhookProvider {
	return &WebhookProvider{
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

func (w *WebhookProvider) Name() string { return "discord" }

// Send posts the batch in one request. Only 204 No Content counts as
// accepted.
func (w *WebhookProvider) Send(ctx context.Context, batch model.Batch) error {
	if batch == nil {
		batch = model.Batch{}
	}
	body, err := json.Marshal(webhookPayload{
		Embeds:          batch,
		AllowedMentions: allowedMentions{Parse: []string{"users", "roles", "everyone"}},
	})
	if err != nil {
		return fmt.Errorf("discord: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return &StatusError{Provider: w.Name(), Code: resp.StatusCode}
	}
	return nil
}

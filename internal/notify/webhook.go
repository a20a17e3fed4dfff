package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
)

// Webhook POSTs alert events as JSON to a single configured endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(cfg config.WebhookConfig) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ev Event) error {
	if w == nil || w.url == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

func newDeliveryID() string {
	return uuid.NewString()
}

package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"haven-modsync/internal/webhook"

	"go.uber.org/zap"
)

// Relay forwards gateway events to the webhook receiver as authenticated JSON
// posts. One shot per event, no retry; a lost event is reconciled by a later
// correlating event, if any.
type Relay struct {
	baseURL string
	secret  string
	client  *http.Client
	logger  *zap.Logger
}

func NewRelay(baseURL, secret string, logger *zap.Logger) *Relay {
	return &Relay{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{},
		logger:  logger,
	}
}

func (r *Relay) Send(ctx context.Context, event webhook.Event) (webhook.Response, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return webhook.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/webhooks/discord", bytes.NewReader(body))
	if err != nil {
		return webhook.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-webhook-secret", r.secret)

	resp, err := r.client.Do(req)
	if err != nil {
		return webhook.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return webhook.Response{}, fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}

	var out webhook.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return webhook.Response{}, err
	}
	return out, nil
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const webhookErrorThreshold = 300

// Notifier reports suspicious session events (a session cookie showing up
// from a new IP) to an operator-configured webhook. Fire and forget.
type Notifier struct {
	client     *http.Client
	log        *zap.SugaredLogger
	webhookURL string
}

func NewNotifier(log *zap.SugaredLogger, webhookURL string) *Notifier {
	return &Notifier{
		client:     &http.Client{},
		log:        log,
		webhookURL: webhookURL,
	}
}

func (n *Notifier) NotifySessionIPChange(ctx context.Context, data map[string]interface{}) {
	// The handler that spotted the IP change returns before the alert is
	// sent; detach from its cancellation so the delivery can finish.
	ctx = context.WithoutCancel(ctx)

	go func() {
		if n.webhookURL == "" {
			return
		}

		payload, err := json.Marshal(data)
		if err != nil {
			n.log.Errorw("failed to marshal webhook payload", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			n.log.Errorw("failed to create webhook request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			n.log.Errorw("failed to send webhook", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= webhookErrorThreshold {
			n.log.Warnw("webhook returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}

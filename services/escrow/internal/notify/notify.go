package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	signatureHeader = "X-Signature"
	eventIDHeader   = "X-Event-Id"
	eventTypeHeader = "X-Event-Type"
)

// Webhook posts outcome notifications to a single configured endpoint, signed
// with HMAC-SHA256 over the raw body. Delivery is best-effort: failures are
// logged and never propagate into the operation that emitted the event.
type Webhook struct {
	Endpoint string
	Secret   string
	HTTP     *http.Client
}

func NewWebhook(endpoint, secret string) *Webhook {
	return &Webhook{
		Endpoint: endpoint,
		Secret:   secret,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

type envelope struct {
	EventID      string         `json:"event_id"`
	EventType    string         `json:"event_type"`
	SubmissionID string         `json:"submission_id"`
	Payload      map[string]any `json:"payload"`
	EmittedAt    string         `json:"emitted_at"`
}

func (n *Webhook) Notify(ctx context.Context, eventType, submissionID string, payload map[string]any) {
	if n == nil || n.Endpoint == "" {
		return
	}
	eventID := "evt_" + uuid.NewString()
	body, err := json.Marshal(envelope{
		EventID:      eventID,
		EventType:    eventType,
		SubmissionID: submissionID,
		Payload:      payload,
		EmittedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("notify: marshal %s event for %s: %v", eventType, submissionID, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventIDHeader, eventID)
	req.Header.Set(eventTypeHeader, eventType)
	req.Header.Set(signatureHeader, Sign(n.Secret, body))

	resp, err := n.HTTP.Do(req)
	if err != nil {
		log.Printf("notify: deliver %s event for %s: %v", eventType, submissionID, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("notify: endpoint returned %d for %s event on %s", resp.StatusCode, eventType, submissionID)
	}
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

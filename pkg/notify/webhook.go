package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookSender posts JSON alert payloads to webhook URLs.
type WebhookSender struct {
	http *http.Client
}

// NewWebhookSender creates a sender whose requests are bounded by the
// given timeout.
func NewWebhookSender(timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		http: &http.Client{Timeout: timeout},
	}
}

// Send posts the payload to the channel URL. Any non-2xx response is an
// error.
func (s *WebhookSender) Send(ctx context.Context, channel Channel, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, channel.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "duressd/1.0")
	if channel.Secret != "" {
		req.Header.Set("X-Duressd-Signature", sign(payload, channel.Secret))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// sign creates an HMAC-SHA256 signature for the payload.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

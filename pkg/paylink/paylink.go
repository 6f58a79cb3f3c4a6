// Package paylink is a thin client for the external collect-payment gateway.
// The gateway is an external collaborator: this engine only creates collect
// links and accepts confirmation callbacks; it never reads gateway balances.
package paylink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ErrUnauthorizedCallback is returned when a callback's secret header does not
// match the configured channel secret.
var ErrUnauthorizedCallback = errors.New("callback secret mismatch")

// Client talks to the gateway's JSON API. Credentials travel in the channel
// and secret headers, the way the gateway requires.
type Client struct {
	BaseURL    string
	Channel    string
	Secret     string
	WebsiteURL string
	HTTPClient *http.Client
}

// NewFromEnv builds a Client from PAYLINK_BASE_URL, PAYLINK_CHANNEL,
// PAYLINK_SECRET and PAYLINK_WEBSITE_URL.
func NewFromEnv() *Client {
	return &Client{
		BaseURL:    os.Getenv("PAYLINK_BASE_URL"),
		Channel:    os.Getenv("PAYLINK_CHANNEL"),
		Secret:     os.Getenv("PAYLINK_SECRET"),
		WebsiteURL: os.Getenv("PAYLINK_WEBSITE_URL"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CollectRequest is the payload for creating a collect link.
// Amount is in int64 minor units; the gateway is told the currency separately.
type CollectRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Invoice     string `json:"invoice"`
	ExternalID  string `json:"externalId"`
	CallbackURL string `json:"callbackUrl"`
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Status bool            `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
}

// CollectLink is the created payment link.
type CollectLink struct {
	CollectURL string `json:"collectUrl"`
}

// Callback is the confirmation the gateway posts when a collect link is paid.
type Callback struct {
	ExternalID string `json:"externalId"`
	Status     string `json:"collectStatus"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// Paid reports whether the callback confirms a successful collection.
func (c *Callback) Paid() bool {
	return c.Status == "success"
}

// CreateCollectLink creates a payment collect link at the gateway.
func (c *Client) CreateCollectLink(ctx context.Context, req *CollectRequest) (*CollectLink, error) {
	if c.Channel == "" || c.Secret == "" {
		return nil, errors.New("missing gateway credentials: set PAYLINK_CHANNEL and PAYLINK_SECRET")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collect request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/payment/collect", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("channel", c.Channel)
	httpReq.Header.Set("secret", c.Secret)
	httpReq.Header.Set("websiteurl", c.WebsiteURL)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if !env.Status {
		return nil, fmt.Errorf("gateway rejected collect request: %s", env.Code)
	}

	var link CollectLink
	if err := json.Unmarshal(env.Data, &link); err != nil {
		return nil, fmt.Errorf("failed to parse collect link: %w", err)
	}
	if link.CollectURL == "" {
		return nil, errors.New("gateway response missing collect URL")
	}

	return &link, nil
}

// VerifyCallback checks the secret header of an incoming gateway callback.
func (c *Client) VerifyCallback(r *http.Request) error {
	if r.Header.Get("secret") != c.Secret {
		return ErrUnauthorizedCallback
	}
	return nil
}

// ParseCallback decodes a confirmation callback body.
func ParseCallback(body io.Reader) (*Callback, error) {
	var cb Callback
	if err := json.NewDecoder(body).Decode(&cb); err != nil {
		return nil, fmt.Errorf("failed to decode callback: %w", err)
	}
	if cb.ExternalID == "" {
		return nil, errors.New("callback missing external ID")
	}
	return &cb, nil
}

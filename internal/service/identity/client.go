package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hausly/voicedesk/internal/config"
)

// ErrNoCallerNumber is returned when call metadata resolves but carries no
// caller number, so the session continues in anonymous mode.
var ErrNoCallerNumber = errors.New("call metadata has no caller number")

// Resolver resolves who is calling from provider call metadata.
type Resolver interface {
	LookupCaller(ctx context.Context, callID string) (string, error)
}

// Client talks to the telephony provider's REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider API client with a bounded request timeout.
func NewClient(cfg config.TelephonyConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type callMetadata struct {
	CallID     string `json:"call_id"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

// LookupCaller fetches call metadata and returns the caller's phone number.
func (c *Client) LookupCaller(ctx context.Context, callID string) (string, error) {
	url := fmt.Sprintf("%s/v2/get-call/%s", c.baseURL, callID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build get-call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get-call request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get-call returned status %d", resp.StatusCode)
	}

	var meta callMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("decode call metadata: %w", err)
	}

	phone := strings.TrimSpace(meta.FromNumber)
	if phone == "" {
		return "", ErrNoCallerNumber
	}

	return phone, nil
}

type createCallRequest struct {
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

type createCallResponse struct {
	CallID string `json:"call_id"`
}

// CreatePhoneCall asks the provider to place an outbound call and returns the
// new call identifier. Used by the thin callback-initiation endpoint.
func (c *Client) CreatePhoneCall(ctx context.Context, fromNumber, toNumber string) (string, error) {
	payload, err := json.Marshal(createCallRequest{
		FromNumber: fromNumber,
		ToNumber:   toNumber,
	})
	if err != nil {
		return "", fmt.Errorf("marshal create-call request: %w", err)
	}

	url := c.baseURL + "/v2/create-phone-call"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build create-call request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create-call request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create-call returned status %d", resp.StatusCode)
	}

	var created createCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode create-call response: %w", err)
	}

	return created.CallID, nil
}

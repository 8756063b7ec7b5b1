package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGraphAPIBase = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout  = 10 * time.Second
)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	graphAPIBase string
	httpClient   *http.Client
}

// NewClient creates a Graph API client. An empty base uses DefaultGraphAPIBase.
func NewClient(graphAPIBase string) *Client {
	if strings.TrimSpace(graphAPIBase) == "" {
		graphAPIBase = DefaultGraphAPIBase
	}
	return &Client{
		graphAPIBase: strings.TrimRight(graphAPIBase, "/"),
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetHTTPClient overrides the HTTP client (useful for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SendText sends a plain text message from phoneNumberID to the recipient.
func (c *Client) SendText(ctx context.Context, phoneNumberID, to, text, accessToken string) (*SendResponse, error) {
	req := SendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             string(KindText),
		Text:             TextBody{Body: text},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &sendResp); err != nil && resp.StatusCode == http.StatusOK {
			return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
		}
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: send rejected: %w", sendResp.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return &sendResp, nil
}

// MessageID returns the provider id of the sent message, if any.
func (r *SendResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

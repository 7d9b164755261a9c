package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

// ResendClient sends single emails through the Resend HTTP API.
// Documented rate ceiling is ~2 requests/second; pacing is the dispatch
// loop's responsibility, not the client's.
type ResendClient struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewResendClientWithBaseURL is used by tests to point the client at a
// local server.
func NewResendClientWithBaseURL(apiKey, from, baseURL string) *ResendClient {
	c := NewResendClient(apiKey, from)
	c.baseURL = baseURL
	return c
}

func (c *ResendClient) Ready() bool {
	return c.apiKey != "" && c.from != ""
}

type resendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *ResendClient) Send(ctx context.Context, msg Message) error {
	payload := map[string]interface{}{
		"from":    c.from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if len(msg.Tags) > 0 {
		tags := make([]resendTag, 0, len(msg.Tags))
		for _, t := range msg.Tags {
			tags = append(tags, resendTag{Name: "campaign", Value: t})
		}
		payload["tags"] = tags
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Provider errors come back as {"message": "..."}.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("resend: %s (status %d)", apiErr.Message, resp.StatusCode)
	}
	return fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
}

var _ Mailer = (*ResendClient)(nil)

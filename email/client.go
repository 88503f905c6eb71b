// Package email sends transactional mail through a Resend-compatible API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

var ErrSend = errors.New("email send failed")

type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Mock    bool // log instead of sending
}

type Client struct {
	http *http.Client
	cfg  ClientConfig
}

func NewClient(httpClient *http.Client, cfg ClientConfig) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: httpClient, cfg: cfg}
}

// Send posts msg and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 || msg.To[0] == "" {
		return "", fmt.Errorf("%w: no recipient", ErrSend)
	}
	if c.cfg.Mock {
		log.Printf("📧 [mock] %q to %s", msg.Subject, strings.Join(msg.To, ", "))
		return "mock", nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to reach email API: %v", ErrSend, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msgText := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msgText = apiErr.Message
		}
		return "", fmt.Errorf("%w (%d): %s", ErrSend, resp.StatusCode, msgText)
	}

	var sent struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &sent)
	log.Printf("📧 Sent %q to %s (%s)", msg.Subject, strings.Join(msg.To, ", "), sent.ID)
	return sent.ID, nil
}

// Package fulfillment talks to the print-on-demand providers.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrProvider wraps every non-2xx answer from a provider.
var ErrProvider = errors.New("fulfillment provider error")

type Recipient struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city"`
	StateCode   string `json:"state_code,omitempty"`
	CountryCode string `json:"country_code"`
	Zip         string `json:"zip"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// OrderItem is one line for a provider. VariantID is the provider's own
// identifier taken from the routing table.
type OrderItem struct {
	SKU         string
	VariantID   string
	Quantity    int
	RetailPrice string
	Name        string
}

// Order is what the broker hands to every provider client.
type Order struct {
	ExternalID string
	Recipient  Recipient
	Items      []OrderItem
}

type CreatedOrder struct {
	Provider   string
	ID         string
	ExternalID string
	Status     string
}

// Ref is the "provider:id" form stored on the order.
func (c CreatedOrder) Ref() string {
	return c.Provider + ":" + c.ID
}

// splitName breaks a full name for providers that want first and last
// names apart. A single word is used as the first name.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return strings.TrimSpace(name[:i]), name[i+1:]
	}
	return name, ""
}

// sendJSON does one JSON request against a plain REST provider and decodes
// a 2xx body into out.
func sendJSON(ctx context.Context, client *http.Client, provider, method, url string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to reach %s: %v", ErrProvider, provider, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w (%s %d): %s", ErrProvider, provider, resp.StatusCode, errorMessage(raw))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: unexpected %s response: %v", ErrProvider, provider, err)
		}
	}
	return nil
}

// errorMessage pulls the human-readable part out of a provider error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if len(body.Errors) > 0 {
			return string(body.Errors)
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}

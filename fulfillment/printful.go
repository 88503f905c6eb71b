package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lyrion-studio/lyrion-api/routing"
)

// storePageSize is the largest page Printful serves for store products.
const storePageSize = 100

type printfulItem struct {
	SyncVariantID int64  `json:"sync_variant_id"`
	Quantity      int    `json:"quantity"`
	RetailPrice   string `json:"retail_price,omitempty"`
	Name          string `json:"name,omitempty"`
	ExternalID    string `json:"external_id,omitempty"`
}

type printfulOrder struct {
	ExternalID string         `json:"external_id"`
	Recipient  Recipient      `json:"recipient"`
	Items      []printfulItem `json:"items"`
}

type printfulCreated struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

type StoreProduct struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Variants   int    `json:"variants"`
	Synced     int    `json:"synced"`
}

type SyncVariant struct {
	ID          int64  `json:"id"`
	ExternalID  string `json:"external_id"`
	VariantID   int64  `json:"variant_id"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	RetailPrice string `json:"retail_price"`
	SKU         string `json:"sku"`
}

type StoreProductDetail struct {
	SyncProduct  StoreProduct  `json:"sync_product"`
	SyncVariants []SyncVariant `json:"sync_variants"`
}

type paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// envelope is the wrapper Printful puts around every response.
type envelope struct {
	Code   int             `json:"code"`
	Result json.RawMessage `json:"result"`
	Paging *paging         `json:"paging,omitempty"`
	Error  *struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type PrintfulConfig struct {
	BaseURL string
	APIKey  string
	StoreID string
	Confirm bool
}

type PrintfulClient struct {
	client *http.Client
	cfg    PrintfulConfig
}

func NewPrintfulClient(client *http.Client, cfg PrintfulConfig) *PrintfulClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.printful.com"
	}
	return &PrintfulClient{client: client, cfg: cfg}
}

// CreateOrder submits an order. Unless Confirm is set Printful keeps it as a
// draft for review in the dashboard.
func (p *PrintfulClient) CreateOrder(ctx context.Context, order Order) (*CreatedOrder, error) {
	wire := printfulOrder{ExternalID: order.ExternalID, Recipient: order.Recipient}
	for _, item := range order.Items {
		id, err := strconv.ParseInt(item.VariantID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: printful sync variant %q for %s is not numeric", ErrProvider, item.VariantID, item.SKU)
		}
		wire.Items = append(wire.Items, printfulItem{
			SyncVariantID: id,
			Quantity:      item.Quantity,
			RetailPrice:   item.RetailPrice,
			Name:          item.Name,
			ExternalID:    item.SKU,
		})
	}

	path := "/orders"
	if p.cfg.Confirm {
		path += "?confirm=true"
	}
	var created printfulCreated
	if err := p.do(ctx, http.MethodPost, path, wire, &created); err != nil {
		return nil, err
	}
	log.Printf("📦 Printful order %d created for %s (%s)", created.ID, order.ExternalID, created.Status)
	return &CreatedOrder{
		Provider:   routing.ProviderPrintful,
		ID:         strconv.FormatInt(created.ID, 10),
		ExternalID: created.ExternalID,
		Status:     created.Status,
	}, nil
}

// ListStoreProducts pages through every synced product in the store.
func (p *PrintfulClient) ListStoreProducts(ctx context.Context) ([]StoreProduct, error) {
	var products []StoreProduct
	for offset := 0; ; {
		var page []StoreProduct
		pg, err := p.call(ctx, http.MethodGet, fmt.Sprintf("/store/products?offset=%d&limit=%d", offset, storePageSize), nil, &page)
		if err != nil {
			return nil, err
		}
		products = append(products, page...)
		offset += len(page)
		if len(page) == 0 || pg == nil || offset >= pg.Total {
			return products, nil
		}
	}
}

func (p *PrintfulClient) GetStoreProduct(ctx context.Context, id int64) (*StoreProductDetail, error) {
	var detail StoreProductDetail
	if err := p.do(ctx, http.MethodGet, "/store/products/"+strconv.FormatInt(id, 10), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (p *PrintfulClient) do(ctx context.Context, method, path string, in, out any) error {
	_, err := p.call(ctx, method, path, in, out)
	return err
}

// call performs one request and returns the paging block, if any.
func (p *PrintfulClient) call(ctx context.Context, method, path string, in, out any) (*paging, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.cfg.StoreID != "" {
		req.Header.Set("X-PF-Store-Id", p.cfg.StoreID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reach Printful: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	jsonErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if jsonErr == nil && env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		} else if jsonErr == nil && len(env.Result) > 0 && env.Result[0] == '"' {
			_ = json.Unmarshal(env.Result, &msg)
		}
		return nil, fmt.Errorf("%w (%d): %s", ErrProvider, resp.StatusCode, msg)
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("%w: failed to parse Printful response: %v", ErrProvider, jsonErr)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return nil, fmt.Errorf("%w: unexpected Printful result: %v", ErrProvider, err)
		}
	}
	return env.Paging, nil
}

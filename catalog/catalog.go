// Package catalog serves the product list and the oracle reading tiers.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/lyrion-studio/lyrion-api/cart"
	"github.com/shopspring/decimal"
)

var ErrUnknownProduct = errors.New("unknown product")

type Product struct {
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image_front"`
	Variants    []string        `json:"variants,omitempty"`
}

// HasVariant reports whether variant is a valid choice for p. Products
// without variants only accept "".
func (p Product) HasVariant(variant string) bool {
	if len(p.Variants) == 0 {
		return variant == ""
	}
	for _, v := range p.Variants {
		if v == variant {
			return true
		}
	}
	return false
}

// CartItem is the cart line template for p (quantity is set by the cart).
func (p Product) CartItem() cart.Item {
	return cart.Item{
		SKU:      p.SKU,
		Title:    p.Title,
		Price:    p.Price,
		Image:    p.Image,
		Category: p.Category,
	}
}

type Catalog struct {
	products map[string]Product
}

func New(products []Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[p.SKU] = p
	}
	return c
}

// Load reads the catalog from a local path or an http(s) URL.
func Load(ctx context.Context, client *http.Client, location string) (*Catalog, error) {
	var (
		body io.ReadCloser
		err  error
	)
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		body, err = fetch(ctx, client, location)
	} else {
		body, err = os.Open(location)
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", location, err)
	}
	defer body.Close()

	var products []Product
	if err := json.NewDecoder(body).Decode(&products); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", location, err)
	}
	return New(products), nil
}

func fetch(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Catalog) Lookup(sku string) (Product, error) {
	p, ok := c.products[sku]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, sku)
	}
	return p, nil
}

// All returns the products sorted by SKU, optionally filtered by category.
func (c *Catalog) All(category string) []Product {
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

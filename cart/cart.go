// Package cart is the storefront cart: an explicit state object that owns one
// cart document and writes the whole document back to its Storage after
// every mutation.
package cart

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/shopspring/decimal"
)

const (
	CartKey      = "lyrion_cart"
	LastOrderKey = "last_order"
)

var ErrItemNotFound = errors.New("cart item not found")

type Item struct {
	SKU      string          `json:"sku"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Variant  string          `json:"variant,omitempty"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category,omitempty"`
}

// LineTotal is price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Count is the number of units across all lines (the header badge).
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

type Manager struct {
	storage Storage
	cart    Cart
}

// Load restores the cart from storage. A missing or unreadable document
// yields an empty cart.
func Load(storage Storage) *Manager {
	m := &Manager{storage: storage, cart: Cart{Items: []Item{}}}

	raw, err := storage.Get(CartKey)
	if err != nil {
		if !errors.Is(err, ErrNotStored) {
			log.Printf("⚠️ Cart load failed, starting empty: %v", err)
		}
		return m
	}

	var saved Cart
	if err := json.Unmarshal(raw, &saved); err != nil {
		log.Printf("⚠️ Stored cart is not valid JSON, starting empty: %v", err)
		return m
	}
	if saved.Items != nil {
		m.cart.Items = saved.Items
	}
	m.recalculate()
	return m
}

// Cart returns a copy of the current cart.
func (m *Manager) Cart() Cart {
	items := make([]Item, len(m.cart.Items))
	copy(items, m.cart.Items)
	return Cart{Items: items, Total: m.cart.Total}
}

// Add puts one unit of product (with an optional variant, e.g. a size) in the
// cart. An existing line with the same SKU and variant gets +1 instead.
func (m *Manager) Add(product Item, variant string) Cart {
	if i := m.find(product.SKU, variant); i >= 0 {
		m.cart.Items[i].Quantity++
	} else {
		product.Variant = variant
		product.Quantity = 1
		m.cart.Items = append(m.cart.Items, product)
	}
	m.commit()
	return m.Cart()
}

// Remove drops the line for sku+variant.
func (m *Manager) Remove(sku, variant string) (Cart, error) {
	i := m.find(sku, variant)
	if i < 0 {
		return m.Cart(), ErrItemNotFound
	}
	m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
	m.commit()
	return m.Cart(), nil
}

// SetQuantity sets the line quantity; n <= 0 removes the line.
func (m *Manager) SetQuantity(sku, variant string, n int) (Cart, error) {
	if n <= 0 {
		return m.Remove(sku, variant)
	}
	i := m.find(sku, variant)
	if i < 0 {
		return m.Cart(), ErrItemNotFound
	}
	m.cart.Items[i].Quantity = n
	m.commit()
	return m.Cart(), nil
}

// Total is Σ price × quantity over the current lines.
func (m *Manager) Total() decimal.Decimal {
	return m.cart.Total
}

// Clear empties the cart (after a successful checkout).
func (m *Manager) Clear() Cart {
	m.cart = Cart{Items: []Item{}}
	m.commit()
	return m.Cart()
}

func (m *Manager) find(sku, variant string) int {
	for i, item := range m.cart.Items {
		if item.SKU == sku && item.Variant == variant {
			return i
		}
	}
	return -1
}

func (m *Manager) recalculate() {
	total := decimal.Zero
	for _, item := range m.cart.Items {
		total = total.Add(item.LineTotal())
	}
	m.cart.Total = total
}

// commit recomputes the total and persists the full document. Storage
// failures are logged; the in-memory cart stays authoritative.
func (m *Manager) commit() {
	m.recalculate()

	raw, err := json.Marshal(m.cart)
	if err != nil {
		log.Printf("❌ Failed to encode cart: %v", err)
		return
	}
	if err := m.storage.Set(CartKey, raw); err != nil {
		log.Printf("❌ Failed to persist cart: %v", err)
	}
}

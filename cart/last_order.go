package cart

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LastOrder is the snapshot the confirmation page shows after checkout.
type LastOrder struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Items     []Item          `json:"items"`
	Timestamp time.Time       `json:"timestamp"`
}

func SaveLastOrder(storage Storage, order LastOrder) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return storage.Set(LastOrderKey, raw)
}

func LoadLastOrder(storage Storage) (*LastOrder, error) {
	raw, err := storage.Get(LastOrderKey)
	if err != nil {
		return nil, err
	}
	var order LastOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

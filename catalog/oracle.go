package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Tier struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	WordCount   string          `json:"word_count"`
	Delivery    string          `json:"delivery"`
}

var tiers = []Tier{
	{
		ID:          "essence",
		Name:        "Essence Reading",
		Price:       decimal.NewFromInt(25),
		Description: "A focused insight into your current cosmic alignment",
		WordCount:   "300+ words",
		Delivery:    "48 hours",
	},
	{
		ID:          "detailed",
		Name:        "Detailed Reading",
		Price:       decimal.NewFromInt(55),
		Description: "Deep exploration of your birth chart and current transits",
		WordCount:   "800+ words",
		Delivery:    "48 hours",
	},
	{
		ID:          "premium",
		Name:        "Premium Reading",
		Price:       decimal.NewFromInt(125),
		Description: "Comprehensive analysis with personalized ritual guidance",
		WordCount:   "1,500+ words",
		Delivery:    "72 hours",
	},
}

func OracleTiers() []Tier {
	return append([]Tier(nil), tiers...)
}

func OracleTier(id string) (Tier, error) {
	for _, t := range tiers {
		if t.ID == id {
			return t, nil
		}
	}
	return Tier{}, fmt.Errorf("unknown oracle tier %q", id)
}

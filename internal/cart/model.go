package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MoonRock000/E-commerce/internal/product"
)

// Entry is one product line in a cart. TotalPrice accumulates at the price
// in effect when each quantity was added.
type Entry struct {
	ProductID  string           `json:"product_id"`
	Quantity   int              `json:"quantity"`
	TotalPrice string           `json:"total_price"`
	Product    *product.Product `json:"product,omitempty"` // resolved on view only
}

// Cart holds one user's pending purchase. There is at most one cart per user;
// entries are keyed by product id with no duplicates.
type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Entries   []Entry   `json:"entries"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Entry(productID string) *Entry {
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			return &c.Entries[i]
		}
	}
	return nil
}

func (c *Cart) RemoveEntry(productID string) bool {
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// RecomputePrice sets cart price to the sum of entry totals.
func (c *Cart) RecomputePrice() error {
	sum := decimal.Zero
	for _, e := range c.Entries {
		t, err := decimal.NewFromString(e.TotalPrice)
		if err != nil {
			return err
		}
		sum = sum.Add(t)
	}
	c.Price = sum.StringFixed(2)
	return nil
}

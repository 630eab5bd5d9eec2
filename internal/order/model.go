package order

import (
	"time"

	"github.com/MoonRock000/E-commerce/internal/product"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether s is a known status. Transitions are a flat
// overwrite: any known status can replace any other.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

const DefaultShippingCompany = "DHL"

type ShippingInfo struct {
	Address        string `json:"address"`
	Company        string `json:"company,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// Line is an immutable snapshot of a cart entry; it only changes through the
// admin update workflow.
type Line struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"` // resolved on read only
}

type Order struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Lines     []Line       `json:"lines"`
	Status    Status       `json:"status"`
	Shipping  ShippingInfo `json:"shipping_info"`
	// Snapshot total as a string (NUMERIC in Postgres); recomputed on
	// quantity edits.
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) Line(productID string) *Line {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i]
		}
	}
	return nil
}

package cart

// AddToCartRequest payload for adding a product.
// swagger:model AddToCartRequest
type AddToCartRequest struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   example:"2"`
}

// UpdateCartRequest payload for setting an absolute entry quantity.
// swagger:model UpdateCartRequest
type UpdateCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// RemoveFromCartRequest payload for dropping an entry.
// swagger:model RemoveFromCartRequest
type RemoveFromCartRequest struct {
	ProductID string `json:"product_id"`
}

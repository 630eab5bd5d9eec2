package order

// LineInput is one product/quantity pair in an order patch.
// swagger:model OrderLineInput
type LineInput struct {
	ProductID string `json:"product_id" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	Quantity  int    `json:"quantity"   example:"2"`
}

// Patch is the admin order update payload; absent fields are left untouched.
// swagger:model OrderPatch
type Patch struct {
	Lines    []LineInput   `json:"lines,omitempty"`
	Status   Status        `json:"status,omitempty" example:"shipped"`
	Shipping *ShippingInfo `json:"shipping_info,omitempty"`
}

// CheckoutRequest payload for converting the cart into an order.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	Address string `json:"address" example:"123 Main St"`
}

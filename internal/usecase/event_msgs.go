package usecase

import (
	"time"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

// Published on RabbitMQ after the intake accepted an order intent.
type OrderIntentSubmittedMsg struct {
	IntentID       string                `json:"intentId"`
	OrderID        string                `json:"orderId"`
	SessionID      string                `json:"sessionId"`
	Customer       domain.Customer       `json:"customer"`
	Items          []domain.LineItem     `json:"items"`
	Subtotal       int64                 `json:"subtotal"`
	Discount       int64                 `json:"discount"`
	Shipping       int64                 `json:"shipping"`
	Total          int64                 `json:"total"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	Coupon         string                `json:"coupon,omitempty"`
	SubmittedAt    time.Time             `json:"submittedAt"`
}

// Sent by the catalog service on Kafka
type CatalogChangedMsg struct {
	Kind      string `json:"kind"` // "product" or "package"
	ProductID string `json:"productId,omitempty"`
	Slug      string `json:"slug,omitempty"`
}

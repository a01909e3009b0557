package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// Confirmation is the record kept after a successful order-intent submission.
// It is read by the confirmation view; the intake backend owns real order numbers.
type Confirmation struct {
	OrderID        string         `json:"orderId"`
	CreatedAt      time.Time      `json:"createdAt"`
	Items          []LineItem     `json:"items"`
	Subtotal       int64          `json:"subtotal"`
	Shipping       int64          `json:"shipping"`
	Discount       int64          `json:"discount"`
	Total          int64          `json:"total"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	Coupon         string         `json:"coupon,omitempty"`
	Customer       Customer       `json:"customer"`
}

// ConfirmationKey is the fixed key the confirmation record is stored under.
const ConfirmationKey = "lastOrder"

const OrderIDPrefix = "AS"

// NewOrderID builds a display id such as AS-2026-483920. It is not
// globally unique.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("%s-%d-%06d", OrderIDPrefix, now.Year(), 100000+rand.Intn(900000))
}

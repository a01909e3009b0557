// Package pricing derives cart totals. Everything here is pure.
package pricing

import (
	"github.com/shopspring/decimal"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

// Rules holds the shipping tariff. Amounts are whole ILS.
type Rules struct {
	ExpressFee            int64 `koanf:"express_fee" json:"expressFee"`
	StandardFee           int64 `koanf:"standard_fee" json:"standardFee"`
	FreeShippingThreshold int64 `koanf:"free_shipping_threshold" json:"freeShippingThreshold"`
}

var DefaultRules = Rules{
	ExpressFee:            49,
	StandardFee:           30,
	FreeShippingThreshold: 300,
}

type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Compute prices items with DefaultRules.
func Compute(items []domain.LineItem, method domain.ShippingMethod, coupon *domain.Coupon) Quote {
	return DefaultRules.Compute(items, method, coupon)
}

// Compute applies, in order: subtotal, percentage discount, shipping, total.
// Discount and shipping are independent of each other.
func (r Rules) Compute(items []domain.LineItem, method domain.ShippingMethod, coupon *domain.Coupon) Quote {
	subtotal := Subtotal(items)
	discount := Discount(subtotal, coupon)
	shipping := r.Shipping(subtotal, method, coupon)

	net := subtotal - discount
	if net < 0 {
		net = 0
	}
	return Quote{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Total:    net + shipping,
	}
}

func Subtotal(items []domain.LineItem) int64 {
	var subtotal int64
	for _, it := range items {
		subtotal += it.LineTotal()
	}
	return subtotal
}

// Discount rounds half-up to the nearest whole unit.
func Discount(subtotal int64, coupon *domain.Coupon) int64 {
	if coupon == nil || coupon.Percent == nil {
		return 0
	}
	d := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(*coupon.Percent))).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return d.IntPart()
}

// Shipping: a free-shipping coupon short-circuits method and threshold.
func (r Rules) Shipping(subtotal int64, method domain.ShippingMethod, coupon *domain.Coupon) int64 {
	switch {
	case coupon != nil && coupon.FreeShip:
		return 0
	case method == domain.ShippingExpress:
		return r.ExpressFee
	case subtotal >= r.FreeShippingThreshold:
		return 0
	default:
		return r.StandardFee
	}
}

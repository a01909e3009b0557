package domain

import (
	"fmt"
	"strings"
)

// Coupon applies a percentage discount and/or a shipping waiver.
type Coupon struct {
	Code     string `json:"code"`
	Percent  *int   `json:"percent,omitempty"`
	FreeShip bool   `json:"freeShip,omitempty"`
}

const (
	CouponWelcome10 = "WELCOME10"
	CouponFreeShip  = "FREESHIP"
)

func percent(n int) *int { return &n }

var coupons = map[string]Coupon{
	CouponWelcome10: {Code: CouponWelcome10, Percent: percent(10)},
	CouponFreeShip:  {Code: CouponFreeShip, FreeShip: true},
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupCoupon resolves a user-entered code against the fixed vocabulary.
func LookupCoupon(code string) (Coupon, error) {
	norm := NormalizeCouponCode(code)
	c, ok := coupons[norm]
	if !ok {
		return Coupon{}, fmt.Errorf("%w: %q", ErrInvalidCoupon, strings.TrimSpace(code))
	}
	if c.Percent != nil {
		c.Percent = percent(*c.Percent)
	}
	return c, nil
}

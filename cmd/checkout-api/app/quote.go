package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/aq2208/gorder-checkout/internal/cart"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/pricing"
)

// PrintQuote reads a cart snapshot ({"items":[...]}) from r and writes its
// pricing breakdown to w.
func PrintQuote(w io.Writer, r io.Reader, rules pricing.Rules, couponCode, method string) error {
	c := cart.New()
	if err := json.NewDecoder(r).Decode(c); err != nil {
		return errors.Wrap(err, "decode cart")
	}

	ship, err := domain.ParseShippingMethod(method)
	if err != nil {
		return err
	}
	var coupon *domain.Coupon
	if couponCode != "" {
		cp, err := domain.LookupCoupon(couponCode)
		if err != nil {
			return err
		}
		coupon = &cp
	}

	q := rules.Compute(c.Items(), ship, coupon)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, it := range c.Items() {
		fmt.Fprintf(tw, "%s\tx%d\t%d\t\n", it.Name, it.Quantity, it.LineTotal())
	}
	fmt.Fprintf(tw, "Subtotal\t\t%d\t\n", q.Subtotal)
	if q.Discount > 0 {
		fmt.Fprintf(tw, "Discount (%s)\t\t-%d\t\n", coupon.Code, q.Discount)
	}
	fmt.Fprintf(tw, "Shipping (%s)\t\t%d\t\n", ship, q.Shipping)
	fmt.Fprintf(tw, "Total ILS\t\t%d\t\n", q.Total)
	return tw.Flush()
}

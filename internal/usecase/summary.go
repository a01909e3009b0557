package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	"github.com/aq2208/gorder-checkout/internal/pricing"
)

// orderSummary renders the cart as the free-text message the intake
// endpoint stores. It is read by people, not parsed.
func orderSummary(s *checkout.Session, q pricing.Quote) string {
	var b strings.Builder
	b.WriteString("Order request\n\nItems:\n")
	for _, it := range s.Cart.Items() {
		fmt.Fprintf(&b, "- %s x%d @ %d = %d ILS", it.Name, it.Quantity, it.UnitPrice, it.LineTotal())
		if it.PackageSlug != "" {
			fmt.Fprintf(&b, " [package %s", it.PackageSlug)
			if it.PackageOptions != nil {
				if opts := formatOptions(it.PackageOptions.Fields()); opts != "" {
					b.WriteString("; " + opts)
				}
			}
			b.WriteString("]")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nSubtotal: %d ILS\n", q.Subtotal)
	if q.Discount > 0 {
		fmt.Fprintf(&b, "Discount: -%d ILS\n", q.Discount)
	}
	fmt.Fprintf(&b, "Shipping (%s): %d ILS\n", s.ShippingMethod, q.Shipping)
	if s.Coupon != nil {
		fmt.Fprintf(&b, "Coupon: %s\n", s.Coupon.Code)
	}
	fmt.Fprintf(&b, "Total: %d ILS\n", q.Total)

	c := s.Customer
	fmt.Fprintf(&b, "\nDelivery: %s, %s %s\n", strings.TrimSpace(c.Address), strings.TrimSpace(c.City), strings.TrimSpace(c.PostalCode))
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	}
	return b.String()
}

func formatOptions(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, ", ")
}

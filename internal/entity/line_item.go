package domain

import (
	"encoding/json"
	"fmt"
)

// Category classifies a product for package limit checks.
type Category string

const (
	CategoryCamera  Category = "camera"
	CategoryUser    Category = "user"
	CategoryPackage Category = "package"
)

// LineItem is one priced, quantified entry in the cart.
// Prices are whole currency units (ILS).
type LineItem struct {
	ProductID      string
	Name           string
	UnitPrice      int64
	Quantity       int
	Category       Category
	PackageSlug    string
	PackageOptions PackageOptions
}

func (li LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

func (li LineItem) IsPackage() bool {
	return li.Category == CategoryPackage
}

// lineItemJSON keeps the storefront's wire shape: packageOptions is a flat string map.
type lineItemJSON struct {
	ProductID      string            `json:"productId"`
	Name           string            `json:"name"`
	UnitPrice      int64             `json:"unitPrice"`
	Quantity       int               `json:"quantity"`
	Category       Category          `json:"category,omitempty"`
	PackageSlug    string            `json:"packageSlug,omitempty"`
	PackageKind    PackageKind       `json:"packageKind,omitempty"`
	PackageOptions map[string]string `json:"packageOptions,omitempty"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	out := lineItemJSON{
		ProductID:   li.ProductID,
		Name:        li.Name,
		UnitPrice:   li.UnitPrice,
		Quantity:    li.Quantity,
		Category:    li.Category,
		PackageSlug: li.PackageSlug,
	}
	if li.PackageOptions != nil {
		out.PackageKind = li.PackageOptions.Kind()
		out.PackageOptions = li.PackageOptions.Fields()
	}
	return json.Marshal(out)
}

func (li *LineItem) UnmarshalJSON(b []byte) error {
	var in lineItemJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*li = LineItem{
		ProductID:   in.ProductID,
		Name:        in.Name,
		UnitPrice:   in.UnitPrice,
		Quantity:    in.Quantity,
		Category:    in.Category,
		PackageSlug: in.PackageSlug,
	}
	if len(in.PackageOptions) > 0 {
		// Older snapshots carry no kind; their slugs are kind-prefixed.
		kind := in.PackageKind
		if kind == "" {
			kind = KindForSlug(in.PackageSlug)
		}
		opts, err := ParsePackageOptions(kind, in.PackageOptions)
		if err != nil {
			return fmt.Errorf("line item %q: %w", in.ProductID, err)
		}
		li.PackageOptions = opts
	}
	return nil
}

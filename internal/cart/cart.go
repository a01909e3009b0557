// Package cart holds the line items of one checkout together with the
// active package, so limit checks and additions happen in one place.
package cart

import (
	"encoding/json"
	"strings"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

// Cart is not safe for concurrent use; its owner serialises access.
type Cart struct {
	items  []domain.LineItem
	active *domain.Package
}

func New() *Cart {
	return &Cart{}
}

// Add inserts item or increases the quantity of an existing line with the
// same product id. Additions constrained by the active package are
// all-or-nothing: either the whole quantity fits or nothing changes.
func (c *Cart) Add(item domain.LineItem) error {
	item.ProductID = strings.TrimSpace(item.ProductID)
	switch {
	case item.ProductID == "":
		return domain.ErrProductIDRequired
	case item.Quantity <= 0:
		return domain.ErrInvalidQuantity
	case item.UnitPrice < 0:
		return domain.ErrInvalidPrice
	}
	if item.IsPackage() || strings.HasPrefix(item.ProductID, domain.PackageProductPrefix) {
		return domain.ErrPackageLine
	}

	if c.active != nil {
		if limit, ok := c.active.Limits.For(item.Category); ok {
			current := c.CategoryCount(item.Category)
			if !c.CanAdd(item.Category, current+item.Quantity-1) {
				return &domain.LimitExceededError{
					Package:   c.active.Slug,
					Category:  item.Category,
					Limit:     limit,
					Current:   current,
					Requested: item.Quantity,
				}
			}
		}
	}

	if i := c.index(item.ProductID); i >= 0 {
		c.items[i].Quantity += item.Quantity
		return nil
	}
	c.items = append(c.items, item)
	return nil
}

// UpdateQuantity sets the quantity of an existing line. q <= 0 removes it.
// Unknown ids are ignored. Package lines stay at quantity 1.
func (c *Cart) UpdateQuantity(productID string, q int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if q <= 0 {
		c.Remove(productID)
		return
	}
	if c.items[i].IsPackage() {
		return
	}
	c.items[i].Quantity = q
}

func (c *Cart) Remove(productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if c.active != nil && c.active.ProductID() == productID {
		c.active = nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// Clear empties the cart, including the active package.
func (c *Cart) Clear() {
	c.items = nil
	c.active = nil
}

// SelectPackage makes pkg the active package, replacing any previous one.
// Hardware already in the cart is kept even if it exceeds the new limits.
func (c *Cart) SelectPackage(pkg domain.Package, opts domain.PackageOptions) {
	if c.active != nil {
		if i := c.index(c.active.ProductID()); i >= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
	}
	p := pkg
	c.active = &p
	c.items = append(c.items, pkg.LineItem(opts))
}

func (c *Cart) ClearPackage() {
	if c.active == nil {
		return
	}
	c.Remove(c.active.ProductID())
}

func (c *Cart) ActivePackage() (domain.Package, bool) {
	if c.active == nil {
		return domain.Package{}, false
	}
	return *c.active, true
}

// CanAdd reports whether one more item of category fits when current are
// already in the cart.
func (c *Cart) CanAdd(category domain.Category, current int) bool {
	if c.active == nil {
		return true
	}
	limit, ok := c.active.Limits.For(category)
	if !ok {
		return true
	}
	return current < limit
}

func (c *Cart) CategoryCount(category domain.Category) int {
	n := 0
	for _, it := range c.items {
		if it.Category == category {
			n += it.Quantity
		}
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	var total int64
	for _, it := range c.items {
		total += it.LineTotal()
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Item(productID string) (domain.LineItem, bool) {
	i := c.index(productID)
	if i < 0 {
		return domain.LineItem{}, false
	}
	return c.items[i], true
}

func (c *Cart) index(productID string) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

type snapshot struct {
	Items   []domain.LineItem `json:"items"`
	Package *domain.Package   `json:"package,omitempty"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []domain.LineItem{}
	}
	return json.Marshal(snapshot{Items: items, Package: c.active})
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	c.items = s.Items
	c.active = s.Package
	return nil
}

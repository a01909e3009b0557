package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/pricing"
	"github.com/aq2208/gorder-checkout/internal/session"
)

// DeepLink pre-populates a new session from a product or package reference.
type DeepLink struct {
	ProductID      string
	Quantity       int
	PackageSlug    string
	PackageOptions map[string]string
}

func (d DeepLink) empty() bool {
	return strings.TrimSpace(d.ProductID) == "" && strings.TrimSpace(d.PackageSlug) == ""
}

// CustomerPatch updates only the fields that are set.
type CustomerPatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	Phone         *string
	Address       *string
	City          *string
	PostalCode    *string
	Notes         *string
	TermsAccepted *bool
}

func (p CustomerPatch) apply(s *checkout.Session) {
	c := s.Customer
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.FirstName, p.FirstName)
	set(&c.LastName, p.LastName)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Address, p.Address)
	set(&c.City, p.City)
	set(&c.PostalCode, p.PostalCode)
	set(&c.Notes, p.Notes)
	s.SetCustomer(c)
	if p.TermsAccepted != nil {
		s.AcceptTerms(*p.TermsAccepted)
	}
}

// Checkout is the command side of a shopper's session: every call resolves
// catalog data first, then applies one mutation under the session lock.
type Checkout struct {
	sessions *session.Manager
	catalog  CatalogLookup
	rules    pricing.Rules
	metrics  Recorder
}

func NewCheckout(sessions *session.Manager, catalog CatalogLookup, rules pricing.Rules, metrics Recorder) *Checkout {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Checkout{sessions: sessions, catalog: catalog, rules: rules, metrics: metrics}
}

func (uc *Checkout) Rules() pricing.Rules { return uc.rules }

// CreateSession starts a checkout. A deep link is resolved before the
// session is stored and either adds its item completely or not at all: when
// the lookup or the add fails the shopper still gets an empty session.
func (uc *Checkout) CreateSession(ctx context.Context, link DeepLink) (*checkout.Session, error) {
	if link.empty() {
		return uc.sessions.Create(ctx, nil)
	}

	prefill, err := uc.resolveDeepLink(ctx, link)
	if err == nil {
		var s *checkout.Session
		s, err = uc.sessions.Create(ctx, prefill)
		if err == nil {
			logging.FromCtx(ctx).Info("checkout session prefilled", "session_id", s.ID,
				"product_id", link.ProductID, "package", link.PackageSlug)
			return s, nil
		}
	}
	logging.FromCtx(ctx).Warn("deep link prefill skipped", "product_id", link.ProductID,
		"package", link.PackageSlug, "err", err)
	return uc.sessions.Create(ctx, nil)
}

func (uc *Checkout) resolveDeepLink(ctx context.Context, link DeepLink) (func(*checkout.Session) error, error) {
	var (
		product *domain.Product
		pkg     *domain.Package
		opts    domain.PackageOptions
	)
	if slug := strings.TrimSpace(link.PackageSlug); slug != "" {
		p, o, err := uc.resolvePackage(ctx, slug, link.PackageOptions)
		if err != nil {
			return nil, err
		}
		pkg, opts = &p, o
	}
	if id := strings.TrimSpace(link.ProductID); id != "" {
		p, err := uc.catalog.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		product = &p
	}
	qty := link.Quantity
	if qty <= 0 {
		qty = 1
	}
	return func(s *checkout.Session) error {
		if pkg != nil {
			s.Cart.SelectPackage(*pkg, opts)
		}
		if product != nil {
			return uc.add(s, product.LineItem(qty))
		}
		return nil
	}, nil
}

func (uc *Checkout) Session(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.View(ctx, id)
}

func (uc *Checkout) ResetSession(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Reset(ctx, id)
}

func (uc *Checkout) Quote(ctx context.Context, id string) (pricing.Quote, error) {
	s, err := uc.sessions.View(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.Quote(uc.rules), nil
}

// AddProduct adds quantity units of a catalog product. Price, name and
// category always come from the catalog.
func (uc *Checkout) AddProduct(ctx context.Context, id, productID string, quantity int) (*checkout.Session, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	p, err := uc.catalog.Product(ctx, strings.TrimSpace(productID))
	if err != nil {
		return nil, err
	}
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		return uc.add(s, p.LineItem(quantity))
	})
}

func (uc *Checkout) add(s *checkout.Session, item domain.LineItem) error {
	err := s.Cart.Add(item)
	if errors.Is(err, domain.ErrLimitExceeded) {
		uc.metrics.LimitRejected(item.Category)
	}
	return err
}

func (uc *Checkout) UpdateQuantity(ctx context.Context, id, productID string, quantity int) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.Cart.UpdateQuantity(productID, quantity)
		return nil
	})
}

func (uc *Checkout) RemoveItem(ctx context.Context, id, productID string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.Cart.Remove(productID)
		return nil
	})
}

// ClearCart empties the cart and drops the coupon with it.
func (uc *Checkout) ClearCart(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.Cart.Clear()
		s.RemoveCoupon()
		return nil
	})
}

func (uc *Checkout) SelectPackage(ctx context.Context, id, slug string, options map[string]string) (*checkout.Session, error) {
	pkg, opts, err := uc.resolvePackage(ctx, strings.TrimSpace(slug), options)
	if err != nil {
		return nil, err
	}
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.Cart.SelectPackage(pkg, opts)
		return nil
	})
}

func (uc *Checkout) resolvePackage(ctx context.Context, slug string, options map[string]string) (domain.Package, domain.PackageOptions, error) {
	pkg, err := uc.catalog.Package(ctx, slug)
	if err != nil {
		return domain.Package{}, nil, err
	}
	if len(options) == 0 {
		return pkg, nil, nil
	}
	kind := pkg.Kind
	if kind == "" {
		kind = domain.KindForSlug(pkg.Slug)
	}
	opts, err := domain.ParsePackageOptions(kind, options)
	if err != nil {
		return domain.Package{}, nil, fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	return pkg, opts, nil
}

func (uc *Checkout) ClearPackage(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.Cart.ClearPackage()
		return nil
	})
}

func (uc *Checkout) ApplyCoupon(ctx context.Context, id, code string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		return s.ApplyCoupon(code)
	})
}

func (uc *Checkout) RemoveCoupon(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.RemoveCoupon()
		return nil
	})
}

func (uc *Checkout) SetShippingMethod(ctx context.Context, id string, method domain.ShippingMethod) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		s.SetShippingMethod(method)
		return nil
	})
}

func (uc *Checkout) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		patch.apply(s)
		return nil
	})
}

func (uc *Checkout) Next(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		return s.Next()
	})
}

func (uc *Checkout) Back(ctx context.Context, id string) (*checkout.Session, error) {
	return uc.sessions.Do(ctx, id, func(s *checkout.Session) error {
		return s.Back()
	})
}

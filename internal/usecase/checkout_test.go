package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/pricing"
	"github.com/aq2208/gorder-checkout/internal/session"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

func limit(n int) *int { return &n }

func newCatalog() *mockCatalog {
	return &mockCatalog{
		products: map[string]domain.Product{
			"cam-1":  {ID: "cam-1", Name: "Dome camera", Price: 320, Category: domain.CategoryCamera},
			"cam-2":  {ID: "cam-2", Name: "Bullet camera", Price: 410, Category: domain.CategoryCamera},
			"siren":  {ID: "siren", Name: "Siren", Price: 150},
			"user-1": {ID: "user-1", Name: "App seat", Price: 40, Category: domain.CategoryUser},
		},
		packages: map[string]domain.Package{
			"camera-pro-2": {Slug: "camera-pro-2", Name: "Camera Pro 2", PriceILS: 1490, Kind: domain.KindCamera, Limits: domain.Limits{Cameras: limit(2)}},
			"alarm-basic":  {Slug: "alarm-basic", Name: "Alarm Basic", PriceILS: 990, Limits: domain.Limits{Cameras: limit(0)}},
			"pro-4":        {Slug: "pro-4", Name: "Pro 4", PriceILS: 2490, Kind: domain.KindCamera, Limits: domain.Limits{Cameras: limit(4)}},
		},
	}
}

func setupCheckout(t *testing.T) (*usecase.Checkout, *mockCatalog, *mockRecorder, *session.Manager) {
	t.Helper()
	n := 0
	mgr := session.NewManager(session.NewMemoryStore(), session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s-%d", n)
	}))
	cat := newCatalog()
	rec := &mockRecorder{}
	return usecase.NewCheckout(mgr, cat, pricing.DefaultRules, rec), cat, rec, mgr
}

func TestCreateSessionDeepLink(t *testing.T) {
	ctx := context.Background()

	t.Run("Prefills product", func(t *testing.T) {
		uc, _, _, _ := setupCheckout(t)
		s, err := uc.CreateSession(ctx, usecase.DeepLink{ProductID: "cam-1", Quantity: 2})
		require.NoError(t, err)
		it, ok := s.Cart.Item("cam-1")
		require.True(t, ok)
		assert.Equal(t, 2, it.Quantity)
		assert.Equal(t, int64(320), it.UnitPrice)
	})

	t.Run("Prefills package with options", func(t *testing.T) {
		uc, _, _, _ := setupCheckout(t)
		s, err := uc.CreateSession(ctx, usecase.DeepLink{
			PackageSlug:    "camera-pro-2",
			PackageOptions: map[string]string{"cameraCount": "2", "storage": "1TB"},
		})
		require.NoError(t, err)
		pkg, ok := s.Cart.ActivePackage()
		require.True(t, ok)
		assert.Equal(t, "camera-pro-2", pkg.Slug)
		line, _ := s.Cart.Item(pkg.ProductID())
		assert.Equal(t, domain.CameraPackageOptions{CameraCount: 2, Storage: "1TB"}, line.PackageOptions)
	})

	t.Run("Unknown product yields an empty session", func(t *testing.T) {
		uc, _, _, _ := setupCheckout(t)
		s, err := uc.CreateSession(ctx, usecase.DeepLink{ProductID: "nope"})
		require.NoError(t, err)
		assert.True(t, s.Cart.IsEmpty())
	})

	t.Run("Catalog outage yields an empty session", func(t *testing.T) {
		uc, cat, _, _ := setupCheckout(t)
		cat.err = errors.New("dial tcp: connection refused")
		s, err := uc.CreateSession(ctx, usecase.DeepLink{ProductID: "cam-1"})
		require.NoError(t, err)
		assert.True(t, s.Cart.IsEmpty())
	})

	t.Run("Conflicting package and product add nothing", func(t *testing.T) {
		uc, _, rec, _ := setupCheckout(t)
		s, err := uc.CreateSession(ctx, usecase.DeepLink{ProductID: "cam-1", PackageSlug: "alarm-basic"})
		require.NoError(t, err)
		assert.True(t, s.Cart.IsEmpty())
		_, ok := s.Cart.ActivePackage()
		assert.False(t, ok)
		assert.Equal(t, []domain.Category{domain.CategoryCamera}, rec.limits)
	})
}

func TestAddProduct(t *testing.T) {
	ctx := context.Background()
	uc, _, rec, _ := setupCheckout(t)
	s, err := uc.CreateSession(ctx, usecase.DeepLink{})
	require.NoError(t, err)

	t.Run("Uses catalog price", func(t *testing.T) {
		got, err := uc.AddProduct(ctx, s.ID, "cam-1", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(320), got.Cart.Subtotal())
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, err := uc.AddProduct(ctx, s.ID, "ghost", 1)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("Invalid quantity skips the catalog", func(t *testing.T) {
		_, err := uc.AddProduct(ctx, s.ID, "cam-1", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	})

	t.Run("Limit rejection is recorded", func(t *testing.T) {
		_, err := uc.SelectPackage(ctx, s.ID, "camera-pro-2", nil)
		require.NoError(t, err)
		_, err = uc.AddProduct(ctx, s.ID, "cam-2", 1)
		require.NoError(t, err)

		_, err = uc.AddProduct(ctx, s.ID, "cam-2", 1)
		assert.ErrorIs(t, err, domain.ErrLimitExceeded)
		assert.Equal(t, []domain.Category{domain.CategoryCamera}, rec.limits)

		view, _ := uc.Session(ctx, s.ID)
		assert.Equal(t, 2, view.Cart.CategoryCount(domain.CategoryCamera))
	})
}

func TestSelectPackageRejectsBadOptions(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := setupCheckout(t)
	s, _ := uc.CreateSession(ctx, usecase.DeepLink{})

	_, err := uc.SelectPackage(ctx, s.ID, "camera-pro-2", map[string]string{"doors": "2"})
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = uc.SelectPackage(ctx, s.ID, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestSelectPackageWithUnprefixedSlugStaysUsable(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := setupCheckout(t)
	s, _ := uc.CreateSession(ctx, usecase.DeepLink{})

	_, err := uc.SelectPackage(ctx, s.ID, "pro-4", map[string]string{"cameraCount": "4"})
	require.NoError(t, err)

	_, err = uc.ApplyCoupon(ctx, s.ID, "welcome10")
	require.NoError(t, err)

	view, err := uc.Session(ctx, s.ID)
	require.NoError(t, err)
	line, ok := view.Cart.Item("package:pro-4")
	require.True(t, ok)
	assert.Equal(t, domain.CameraPackageOptions{CameraCount: 4}, line.PackageOptions)
}

func TestCartEditsAndQuote(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := setupCheckout(t)
	s, _ := uc.CreateSession(ctx, usecase.DeepLink{ProductID: "cam-1", Quantity: 2})

	_, err := uc.ApplyCoupon(ctx, s.ID, "welcome10")
	require.NoError(t, err)
	q, err := uc.Quote(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, pricing.Quote{Subtotal: 640, Discount: 64, Total: 576}, q)

	_, err = uc.ApplyCoupon(ctx, s.ID, "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidCoupon)
	q, _ = uc.Quote(ctx, s.ID)
	assert.Equal(t, int64(64), q.Discount)

	_, err = uc.SetShippingMethod(ctx, s.ID, domain.ShippingExpress)
	require.NoError(t, err)
	got, err := uc.UpdateQuantity(ctx, s.ID, "cam-1", 1)
	require.NoError(t, err)
	assert.Equal(t, pricing.Quote{Subtotal: 320, Discount: 32, Shipping: 49, Total: 337}, got.Quote(uc.Rules()))

	got, err = uc.RemoveItem(ctx, s.ID, "cam-1")
	require.NoError(t, err)
	assert.True(t, got.Cart.IsEmpty())

	_, _ = uc.AddProduct(ctx, s.ID, "siren", 1)
	got, err = uc.ClearCart(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Cart.IsEmpty())
	assert.Nil(t, got.Coupon)
}

func TestWizardThroughService(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := setupCheckout(t)
	s, _ := uc.CreateSession(ctx, usecase.DeepLink{})

	str := func(v string) *string { return &v }
	_, err := uc.UpdateCustomer(ctx, s.ID, usecase.CustomerPatch{FirstName: str("Dana"), Email: str("bad")})
	require.NoError(t, err)

	_, err = uc.Next(ctx, s.ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	got, err := uc.UpdateCustomer(ctx, s.ID, usecase.CustomerPatch{
		LastName: str("Levi"), Email: str("dana@example.com"), Phone: str("052-1234567"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana", got.Customer.FirstName, "unset fields are kept")

	got, err = uc.Next(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepAddress, got.Step)

	got, err = uc.Back(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepIdentity, got.Step)

	_, err = uc.Next(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

package domain_test

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

func TestLookupCoupon(t *testing.T) {
	t.Run("case insensitive", func(t *testing.T) {
		c, err := domain.LookupCoupon("  welcome10 ")
		require.NoError(t, err)
		assert.Equal(t, domain.CouponWelcome10, c.Code)
		require.NotNil(t, c.Percent)
		assert.Equal(t, 10, *c.Percent)
		assert.False(t, c.FreeShip)
	})

	t.Run("free shipping carries no percentage", func(t *testing.T) {
		c, err := domain.LookupCoupon("FreeShip")
		require.NoError(t, err)
		assert.True(t, c.FreeShip)
		assert.Nil(t, c.Percent)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := domain.LookupCoupon("SUMMER50")
		assert.ErrorIs(t, err, domain.ErrInvalidCoupon)
	})

	t.Run("returned coupon does not alias the vocabulary", func(t *testing.T) {
		c, _ := domain.LookupCoupon(domain.CouponWelcome10)
		*c.Percent = 90
		again, _ := domain.LookupCoupon(domain.CouponWelcome10)
		assert.Equal(t, 10, *again.Percent)
	})
}

func TestStepNavigation(t *testing.T) {
	next, ok := domain.StepIdentity.Next()
	assert.True(t, ok)
	assert.Equal(t, domain.StepAddress, next)

	_, ok = domain.StepPayment.Next()
	assert.False(t, ok)

	prev, ok := domain.StepPayment.Prev()
	assert.True(t, ok)
	assert.Equal(t, domain.StepAddress, prev)

	_, ok = domain.StepIdentity.Prev()
	assert.False(t, ok)
}

func TestLineItemJSONKeepsFlatPackageOptions(t *testing.T) {
	pkg := domain.Package{Slug: "camera-pro-4", Name: "Camera Pro 4", PriceILS: 2490}
	item := pkg.LineItem(domain.CameraPackageOptions{CameraCount: 4, Storage: "2TB", AIDetection: "pro"})

	raw, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"productId":"package:camera-pro-4","name":"Camera Pro 4","unitPrice":2490,"quantity":1,
		"category":"package","packageSlug":"camera-pro-4","packageKind":"camera",
		"packageOptions":{"cameraCount":"4","storage":"2TB","aiDetection":"pro"}
	}`, string(raw))

	var back domain.LineItem
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, item, back)
}

func TestLineItemJSONUsesOptionKindOverSlug(t *testing.T) {
	pkg := domain.Package{Slug: "pro-4", Name: "Pro 4", PriceILS: 2490, Kind: domain.KindCamera}
	item := pkg.LineItem(domain.CameraPackageOptions{CameraCount: 4})

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var back domain.LineItem
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, item, back)

	t.Run("falls back to the slug prefix", func(t *testing.T) {
		var legacy domain.LineItem
		err := json.Unmarshal([]byte(`{"productId":"package:alarm-basic","quantity":1,"category":"package",
			"packageSlug":"alarm-basic","packageOptions":{"sensors":"3"}}`), &legacy)
		require.NoError(t, err)
		assert.Equal(t, domain.KindAlarm, legacy.PackageOptions.Kind())
	})
}

func TestParsePackageOptions(t *testing.T) {
	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := domain.ParsePackageOptions(domain.KindAlarm, map[string]string{"cameraCount": "2"})
		assert.Error(t, err)
	})

	t.Run("rejects non numeric counts", func(t *testing.T) {
		_, err := domain.ParsePackageOptions(domain.KindAccess, map[string]string{"doors": "two"})
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := domain.ParsePackageOptions(domain.KindForSlug("gift-card"), map[string]string{"x": "1"})
		assert.Error(t, err)
	})

	t.Run("access", func(t *testing.T) {
		opts, err := domain.ParsePackageOptions(domain.KindAccess, map[string]string{"doors": "3", "users": "20"})
		require.NoError(t, err)
		assert.Equal(t, domain.AccessPackageOptions{Doors: 3, Users: 20}, opts)
	})
}

func TestLimitsFor(t *testing.T) {
	zero := 0
	l := domain.Limits{Cameras: &zero}

	n, ok := l.For(domain.CategoryCamera)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = l.For(domain.CategoryUser)
	assert.False(t, ok)
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &domain.LimitExceededError{Package: "alarm-basic", Category: domain.CategoryCamera}
	assert.ErrorIs(t, err, domain.ErrLimitExceeded)
	assert.Contains(t, err.Error(), "does not allow camera")

	err = &domain.ValidationError{Step: domain.StepIdentity, Fields: []domain.FieldError{{Field: "email", Message: "is invalid"}}}
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	cause := errors.New("connection refused")
	err = &domain.SubmissionError{Reason: domain.ReasonTransport, Err: cause}
	assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
	assert.ErrorIs(t, err, cause)
}

func TestNewOrderID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^AS-2026-[1-9]\d{5}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, domain.NewOrderID(now))
	}
}

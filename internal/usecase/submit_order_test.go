package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/pricing"
	"github.com/aq2208/gorder-checkout/internal/session"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type submitFixture struct {
	uc        *usecase.SubmitOrder
	store     *session.MemoryStore
	mgr       *session.Manager
	intake    *mockIntake
	confirm   *mockConfirmations
	idem      *mockIdempotency
	publisher *mockPublisher
	metrics   *mockRecorder
	challenge *mockChallenge
}

var submittedAt = time.Date(2026, 7, 9, 12, 0, 0, 0, time.UTC)

func setupSubmit(t *testing.T) *submitFixture {
	t.Helper()
	n := 0
	store := session.NewMemoryStore()
	f := &submitFixture{
		store: store,
		mgr: session.NewManager(store, session.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("s-%d", n)
		})),
		intake:    &mockIntake{},
		confirm:   &mockConfirmations{store: map[string]domain.Confirmation{}},
		idem:      newMockIdempotency(),
		publisher: &mockPublisher{},
		metrics:   &mockRecorder{},
		challenge: &mockChallenge{token: "captcha-ok"},
	}
	f.uc = usecase.NewSubmitOrder(usecase.SubmitOrderDeps{
		Sessions:      f.mgr,
		Intake:        f.intake,
		Challenge:     f.challenge,
		Confirmations: f.confirm,
		Idempotency:   f.idem,
		Publisher:     f.publisher,
		Metrics:       f.metrics,
		Rules:         pricing.DefaultRules,
		Timeout:       200 * time.Millisecond,
		Now:           func() time.Time { return submittedAt },
	})
	return f
}

// readySession builds a session at the payment step with two cameras,
// WELCOME10 and accepted terms.
func (f *submitFixture) readySession(t *testing.T) *checkout.Session {
	t.Helper()
	s, err := f.mgr.Create(context.Background(), func(s *checkout.Session) error {
		s.SetCustomer(domain.Customer{
			FirstName: "Dana", LastName: "Levi", Email: "dana@example.com", Phone: "052-123-4567",
			Address: "12 Herzl St", City: "Haifa", PostalCode: "3303112", Notes: "Call before delivery",
		})
		if err := s.Next(); err != nil {
			return err
		}
		if err := s.Next(); err != nil {
			return err
		}
		if err := s.Cart.Add(domain.LineItem{ProductID: "cam-1", Name: "Dome camera", UnitPrice: 320, Quantity: 2, Category: domain.CategoryCamera}); err != nil {
			return err
		}
		s.AcceptTerms(true)
		return s.ApplyCoupon("WELCOME10")
	})
	require.NoError(t, err)
	return s
}

func TestSubmitOrderSuccess(t *testing.T) {
	f := setupSubmit(t)
	s := f.readySession(t)
	ctx := context.Background()

	out, err := f.uc.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID})
	require.NoError(t, err)

	assert.Regexp(t, `^AS-2026-\d{6}$`, out.OrderID)
	assert.Equal(t, usecase.ConfirmationRedirectDelay, out.RedirectAfter)
	assert.Equal(t, 1500*time.Millisecond, out.RedirectAfter)

	require.Len(t, f.intake.forms, 1)
	form := f.intake.forms[0]
	assert.Equal(t, "Dana Levi", form.Name)
	assert.Equal(t, "Haifa", form.City)
	assert.Equal(t, "captcha-ok", form.RecaptchaToken)
	assert.Contains(t, form.Message, "Dome camera x2 @ 320 = 640 ILS")
	assert.Contains(t, form.Message, "Coupon: WELCOME10")
	assert.Contains(t, form.Message, "Total: 576 ILS")
	assert.Contains(t, form.Message, "Notes: Call before delivery")

	conf, err := f.uc.LastConfirmation(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, out.OrderID, conf.OrderID)
	assert.Equal(t, int64(576), conf.Total)
	assert.Equal(t, int64(64), conf.Discount)
	assert.Equal(t, submittedAt, conf.CreatedAt)
	assert.Len(t, conf.Items, 1)

	after, err := f.mgr.View(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, after.Status)
	assert.True(t, after.Cart.IsEmpty())
	assert.Nil(t, after.Coupon)
	assert.Equal(t, domain.StepIdentity, after.Step)
	assert.Empty(t, after.Customer.Email)

	require.Len(t, f.publisher.msgs, 1)
	assert.Equal(t, out.OrderID, f.publisher.msgs[0].OrderID)
	assert.NotEmpty(t, f.publisher.msgs[0].IntentID)
	assert.Equal(t, []string{usecase.OutcomeSuccess}, f.metrics.outcomes)
}

func TestSubmitOrderWithoutChallengeToken(t *testing.T) {
	f := setupSubmit(t)
	f.challenge.token = ""
	s := f.readySession(t)

	_, err := f.uc.Execute(context.Background(), usecase.SubmitOrderInput{SessionID: s.ID})
	require.NoError(t, err)
	require.Len(t, f.intake.forms, 1)
	assert.Empty(t, f.intake.forms[0].RecaptchaToken)
}

func TestSubmitOrderFailurePreservesCart(t *testing.T) {
	cases := []struct {
		name   string
		intake *mockIntake
		reason domain.SubmissionReason
	}{
		{"Transport", &mockIntake{err: errors.New("connection reset")}, domain.ReasonTransport},
		{"Rejected", &mockIntake{err: fmt.Errorf("%w: status 500", usecase.ErrIntakeRejected)}, domain.ReasonRejected},
		{"Timeout", &mockIntake{block: true}, domain.ReasonTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupSubmit(t)
			f.intake = tc.intake
			f.uc = usecase.NewSubmitOrder(usecase.SubmitOrderDeps{
				Sessions: f.mgr, Intake: tc.intake, Confirmations: f.confirm, Idempotency: f.idem,
				Metrics: f.metrics, Rules: pricing.DefaultRules, Timeout: 50 * time.Millisecond,
			})
			s := f.readySession(t)
			ctx := context.Background()

			_, err := f.uc.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID, IdempotencyKey: "k-1"})
			var serr *domain.SubmissionError
			require.ErrorAs(t, err, &serr)
			assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
			assert.Equal(t, tc.reason, serr.Reason)

			after, _ := f.mgr.View(ctx, s.ID)
			assert.Equal(t, domain.StatusError, after.Status)
			assert.Equal(t, tc.reason, after.LastError.Reason)
			assert.Equal(t, 2, after.Cart.ItemCount())
			assert.Equal(t, s.Customer, after.Customer)
			assert.NotNil(t, after.Coupon)

			_, err = f.confirm.Load(ctx, s.ID)
			assert.ErrorIs(t, err, usecase.ErrConfirmationNotFound)

			// the idempotency key is released so the shopper can retry
			ok, _ := f.idem.TryLock(ctx, s.ID, "k-1")
			assert.True(t, ok)
		})
	}
}

func TestSubmitOrderExposesSubmittingState(t *testing.T) {
	f := setupSubmit(t)
	s := f.readySession(t)
	ctx := context.Background()

	// a second replica sharing the session store
	peer := usecase.NewSubmitOrder(usecase.SubmitOrderDeps{
		Sessions: session.NewManager(f.store), Intake: &mockIntake{}, Confirmations: f.confirm,
		Rules: pricing.DefaultRules,
	})

	var during domain.Status
	var peerErr error
	f.intake.onSubmit = func() {
		view, err := f.mgr.View(ctx, s.ID)
		require.NoError(t, err)
		during = view.Status
		_, peerErr = peer.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID})
	}

	_, err := f.uc.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitting, during)
	assert.ErrorIs(t, peerErr, domain.ErrSubmitInProgress)
	assert.Len(t, f.intake.forms, 1)
}

func TestSubmitOrderTermsBlockNetwork(t *testing.T) {
	f := setupSubmit(t)
	s := f.readySession(t)
	ctx := context.Background()
	_, err := f.mgr.Do(ctx, s.ID, func(s *checkout.Session) error {
		s.AcceptTerms(false)
		return nil
	})
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID})
	assert.ErrorIs(t, err, domain.ErrTermsNotAccepted)
	assert.Empty(t, f.intake.forms)
	assert.Equal(t, []string{usecase.OutcomeBlocked}, f.metrics.outcomes)

	after, _ := f.mgr.View(ctx, s.ID)
	assert.Equal(t, domain.StatusIdle, after.Status)
}

func TestSubmitOrderIdempotency(t *testing.T) {
	f := setupSubmit(t)
	s := f.readySession(t)
	ctx := context.Background()
	in := usecase.SubmitOrderInput{SessionID: s.ID, IdempotencyKey: "abc"}

	first, err := f.uc.Execute(ctx, in)
	require.NoError(t, err)

	again, err := f.uc.Execute(ctx, in)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.OrderID, again.OrderID)
	assert.Len(t, f.intake.forms, 1, "replay does not resubmit")

	t.Run("In-flight key is a duplicate", func(t *testing.T) {
		ok, _ := f.idem.TryLock(ctx, s.ID, "busy")
		require.True(t, ok)
		_, err := f.uc.Execute(ctx, usecase.SubmitOrderInput{SessionID: s.ID, IdempotencyKey: "busy"})
		assert.ErrorIs(t, err, usecase.ErrDuplicate)
	})
}

func TestSubmitOrderPublishFailureIsNotFatal(t *testing.T) {
	f := setupSubmit(t)
	f.publisher.err = errors.New("channel closed")
	s := f.readySession(t)

	out, err := f.uc.Execute(context.Background(), usecase.SubmitOrderInput{SessionID: s.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, out.OrderID)
}

func TestRecordOrderIntent(t *testing.T) {
	repo := &mockIntentRepo{}
	uc := usecase.NewRecordOrderIntent(repo)
	ctx := context.Background()

	msg := usecase.OrderIntentSubmittedMsg{
		IntentID:       "7b1f3c1e-2f4a-4c7e-9d0b-1a2b3c4d5e6f",
		OrderID:        "AS-2026-123456",
		SessionID:      "s-1",
		Customer:       domain.Customer{FirstName: "Dana", LastName: "Levi", Email: "dana@example.com", City: "Haifa"},
		Items:          []domain.LineItem{{ProductID: "cam-1", Name: "Dome", UnitPrice: 320, Quantity: 2}},
		Subtotal:       640,
		Discount:       64,
		Total:          576,
		ShippingMethod: domain.ShippingStandard,
		Coupon:         "WELCOME10",
		SubmittedAt:    submittedAt,
	}
	require.NoError(t, uc.Handle(ctx, msg))
	require.NoError(t, uc.Handle(ctx, msg), "redelivery is tolerated")

	recs, err := uc.Find(ctx, "AS-2026-123456")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dana Levi", recs[0].CustomerName)
	assert.Equal(t, int64(576), recs[0].Total)
	assert.JSONEq(t, `[{"productId":"cam-1","name":"Dome","unitPrice":320,"quantity":2}]`, recs[0].ItemsJSON)

	t.Run("Same display id from another order is kept", func(t *testing.T) {
		other := msg
		other.IntentID = "0c9d8e7f-6a5b-4c3d-2e1f-0a9b8c7d6e5f"
		other.SessionID = "s-2"
		other.Customer.FirstName = "Noa"
		require.NoError(t, uc.Handle(ctx, other))

		recs, err := uc.Find(ctx, "AS-2026-123456")
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("Messages without an intent id dedupe on their content", func(t *testing.T) {
		legacy := msg
		legacy.IntentID = ""
		legacy.OrderID = "AS-2026-654321"
		require.NoError(t, uc.Handle(ctx, legacy))
		require.NoError(t, uc.Handle(ctx, legacy))

		recs, err := uc.Find(ctx, "AS-2026-654321")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.NotEmpty(t, recs[0].IntentID)
	})

	_, err = uc.Find(ctx, "missing")
	assert.ErrorIs(t, err, usecase.ErrIntentNotFound)
}

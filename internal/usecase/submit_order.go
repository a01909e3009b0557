package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/pricing"
	"github.com/aq2208/gorder-checkout/internal/session"
)

// ConfirmationRedirectDelay is how long the client waits on the success
// state before showing the confirmation view.
const ConfirmationRedirectDelay = 1500 * time.Millisecond

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeBlocked  = "blocked"
	OutcomeReplayed = "replayed"
)

type SubmitOrderInput struct {
	SessionID      string
	IdempotencyKey string
}

type SubmitOrderOutput struct {
	OrderID       string
	Confirmation  domain.Confirmation
	RedirectAfter time.Duration
	Replayed      bool
}

type SubmitOrderDeps struct {
	Sessions      *session.Manager
	Intake        OrderIntake
	Challenge     ChallengeProvider
	Confirmations ConfirmationStore
	Idempotency   IdempotencyStore
	Publisher     IntentPublisher
	Metrics       Recorder
	Rules         pricing.Rules
	Timeout       time.Duration
	Now           func() time.Time
}

type SubmitOrder struct {
	SubmitOrderDeps
}

func NewSubmitOrder(d SubmitOrderDeps) *SubmitOrder {
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Timeout <= 0 {
		d.Timeout = 10 * time.Second
	}
	return &SubmitOrder{SubmitOrderDeps: d}
}

// Execute sends the session's order intent to the intake endpoint. Local
// guards (step, empty cart, field validation, terms) fail before any
// network call. A failed submission keeps the cart and may be retried.
func (uc *SubmitOrder) Execute(ctx context.Context, in SubmitOrderInput) (SubmitOrderOutput, error) {
	log := logging.FromCtx(ctx).With("session_id", in.SessionID)
	key := strings.TrimSpace(in.IdempotencyKey)

	if key != "" && uc.Idempotency != nil {
		// Fast path: idempotency recall
		if id, ok, _ := uc.Idempotency.Recall(ctx, in.SessionID, key); ok {
			if conf, err := uc.Confirmations.Load(ctx, in.SessionID); err == nil && conf.OrderID == id {
				uc.Metrics.Submission(OutcomeReplayed)
				return SubmitOrderOutput{OrderID: id, Confirmation: conf, RedirectAfter: ConfirmationRedirectDelay, Replayed: true}, nil
			}
		}
		ok, err := uc.Idempotency.TryLock(ctx, in.SessionID, key)
		if err != nil {
			return SubmitOrderOutput{}, err
		}
		if !ok {
			return SubmitOrderOutput{}, ErrDuplicate
		}
	}

	var conf domain.Confirmation
	_, err := uc.Sessions.Do(ctx, in.SessionID, func(s *checkout.Session) error {
		if err := s.BeginSubmit(); err != nil {
			return err
		}
		if err := uc.Sessions.Checkpoint(ctx, s); err != nil {
			log.Warn("submitting state not saved", "err", err)
		}
		q := s.Quote(uc.Rules)

		form := OrderForm{
			Name:    s.Customer.FullName(),
			Phone:   strings.TrimSpace(s.Customer.Phone),
			Email:   strings.TrimSpace(s.Customer.Email),
			City:    strings.TrimSpace(s.Customer.City),
			Message: orderSummary(s, q),
		}
		if uc.Challenge != nil {
			if token, ok := uc.Challenge.Token(ctx); ok {
				form.RecaptchaToken = token
			} else {
				log.Warn("challenge token unavailable, submitting without it")
			}
		}

		sctx, cancel := context.WithTimeout(ctx, uc.Timeout)
		defer cancel()
		if err := uc.Intake.Submit(sctx, form); err != nil {
			reason := classify(sctx, err)
			s.MarkFailed(reason)
			return &domain.SubmissionError{Reason: reason, Err: err}
		}

		now := uc.Now().UTC()
		conf = domain.Confirmation{
			OrderID:        domain.NewOrderID(now),
			CreatedAt:      now,
			Items:          s.Cart.Items(),
			Subtotal:       q.Subtotal,
			Shipping:       q.Shipping,
			Discount:       q.Discount,
			Total:          q.Total,
			ShippingMethod: s.ShippingMethod,
			Customer:       s.Customer,
		}
		if s.Coupon != nil {
			conf.Coupon = s.Coupon.Code
		}
		s.MarkSucceeded()
		return nil
	})
	if err != nil {
		uc.release(ctx, in.SessionID, key)
		var serr *domain.SubmissionError
		switch {
		case errors.As(err, &serr):
			uc.Metrics.Submission(outcomeFor(serr.Reason))
			log.Error("order intent submission failed", "reason", serr.Reason, "err", serr.Err)
		case isLocalGuard(err):
			uc.Metrics.Submission(OutcomeBlocked)
		}
		return SubmitOrderOutput{}, err
	}

	if err := uc.Confirmations.Save(ctx, in.SessionID, conf); err != nil {
		log.Error("confirmation not stored", "order_id", conf.OrderID, "err", err)
	}
	if key != "" && uc.Idempotency != nil {
		_ = uc.Idempotency.Remember(ctx, in.SessionID, key, conf.OrderID)
	}
	if uc.Publisher != nil {
		if err := uc.Publisher.PublishSubmitted(ctx, submittedMsg(in.SessionID, conf)); err != nil {
			log.Warn("order intent event not published", "order_id", conf.OrderID, "err", err)
		}
	}

	uc.Metrics.Submission(OutcomeSuccess)
	log.Info("order intent submitted", "order_id", conf.OrderID, "total", conf.Total)
	return SubmitOrderOutput{OrderID: conf.OrderID, Confirmation: conf, RedirectAfter: ConfirmationRedirectDelay}, nil
}

func (uc *SubmitOrder) release(ctx context.Context, scope, key string) {
	if key == "" || uc.Idempotency == nil {
		return
	}
	_ = uc.Idempotency.Release(ctx, scope, key)
}

// LastConfirmation returns the record written by the last successful
// submission of the session.
func (uc *SubmitOrder) LastConfirmation(ctx context.Context, sessionID string) (domain.Confirmation, error) {
	return uc.Confirmations.Load(ctx, sessionID)
}

func classify(ctx context.Context, err error) domain.SubmissionReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.Is(err, ErrIntakeRejected):
		return domain.ReasonRejected
	default:
		return domain.ReasonTransport
	}
}

func outcomeFor(r domain.SubmissionReason) string {
	if r == domain.ReasonRejected {
		return OutcomeRejected
	}
	return OutcomeFailed
}

func isLocalGuard(err error) bool {
	for _, target := range []error{
		domain.ErrTermsNotAccepted, domain.ErrValidationFailed, domain.ErrEmptyCart,
		domain.ErrWrongStep, domain.ErrSubmitInProgress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func submittedMsg(sessionID string, c domain.Confirmation) OrderIntentSubmittedMsg {
	return OrderIntentSubmittedMsg{
		IntentID:       uuid.NewString(),
		OrderID:        c.OrderID,
		SessionID:      sessionID,
		Customer:       c.Customer,
		Items:          c.Items,
		Subtotal:       c.Subtotal,
		Discount:       c.Discount,
		Shipping:       c.Shipping,
		Total:          c.Total,
		ShippingMethod: c.ShippingMethod,
		Coupon:         c.Coupon,
		SubmittedAt:    c.CreatedAt,
	}
}

// Package checkout implements the three-step checkout wizard that wraps a
// cart, its coupon and shipping choice, and the order-intent submission status.
package checkout

import (
	"time"

	"github.com/aq2208/gorder-checkout/internal/cart"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/pricing"
)

// Failure describes the last unsuccessful submission. Reason is kept for
// diagnostics; users are shown Message only.
type Failure struct {
	Reason  domain.SubmissionReason `json:"reason"`
	Message string                  `json:"message"`
}

// GenericFailureMessage is the only failure text shown to shoppers.
const GenericFailureMessage = "We could not send your order. Your cart is saved, please try again."

// Session is one shopper's checkout. It is owned by a single logical
// caller at a time; see session.Manager.
type Session struct {
	ID             string                `json:"id"`
	Step           domain.Step           `json:"step"`
	Customer       domain.Customer       `json:"customer"`
	ShippingMethod domain.ShippingMethod `json:"shippingMethod"`
	TermsAccepted  bool                  `json:"termsAccepted"`
	Status         domain.Status         `json:"status"`
	Coupon         *domain.Coupon        `json:"coupon,omitempty"`
	Cart           *cart.Cart            `json:"cart"`
	LastError      *Failure              `json:"lastError,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:             id,
		Step:           domain.StepIdentity,
		ShippingMethod: domain.ShippingStandard,
		Status:         domain.StatusIdle,
		Cart:           cart.New(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Reset returns the session to a fresh state, keeping its identity.
func (s *Session) Reset(now time.Time) {
	*s = *NewSession(s.ID, now)
}

// ApplyCoupon replaces the applied coupon. An unknown code leaves the
// session untouched.
func (s *Session) ApplyCoupon(code string) error {
	c, err := domain.LookupCoupon(code)
	if err != nil {
		return err
	}
	s.Coupon = &c
	return nil
}

func (s *Session) RemoveCoupon() {
	s.Coupon = nil
}

func (s *Session) SetShippingMethod(m domain.ShippingMethod) {
	s.ShippingMethod = m
}

func (s *Session) SetCustomer(c domain.Customer) {
	s.Customer = c
}

func (s *Session) AcceptTerms(accepted bool) {
	s.TermsAccepted = accepted
}

// Quote prices the current cart. It is recomputed on demand, never cached.
func (s *Session) Quote(rules pricing.Rules) pricing.Quote {
	return rules.Compute(s.Cart.Items(), s.ShippingMethod, s.Coupon)
}

// Next advances one step if the current step's fields are valid. On
// failure the step is unchanged.
func (s *Session) Next() error {
	next, ok := s.Step.Next()
	if !ok {
		return domain.ErrWrongStep
	}
	if err := ValidateStep(s.Step, s.Customer); err != nil {
		return err
	}
	s.Step = next
	return nil
}

func (s *Session) Back() error {
	prev, ok := s.Step.Prev()
	if !ok {
		return domain.ErrWrongStep
	}
	s.Step = prev
	return nil
}

// ReadyToSubmit reports why the session cannot be submitted yet, if at all.
// Fields are re-checked because they may have been edited after advancing.
func (s *Session) ReadyToSubmit() error {
	if s.Status == domain.StatusSubmitting {
		return domain.ErrSubmitInProgress
	}
	if s.Step != domain.StepPayment {
		return domain.ErrWrongStep
	}
	if s.Cart.IsEmpty() {
		return domain.ErrEmptyCart
	}
	for _, step := range []domain.Step{domain.StepIdentity, domain.StepAddress} {
		if err := ValidateStep(step, s.Customer); err != nil {
			return err
		}
	}
	if !s.TermsAccepted {
		return domain.ErrTermsNotAccepted
	}
	return nil
}

// BeginSubmit moves Idle or Error to Submitting.
func (s *Session) BeginSubmit() error {
	if err := s.ReadyToSubmit(); err != nil {
		return err
	}
	s.Status = domain.StatusSubmitting
	s.LastError = nil
	return nil
}

// MarkSucceeded resets the session for the next order: the cart with its
// coupon and package, the wizard step, terms and customer fields are
// cleared. Only the Success status remains; the submitted data lives on in
// the confirmation record.
func (s *Session) MarkSucceeded() {
	fresh := NewSession(s.ID, s.CreatedAt)
	fresh.UpdatedAt = s.UpdatedAt
	fresh.Status = domain.StatusSuccess
	*s = *fresh
}

// MarkFailed keeps the cart and customer fields so the shopper can retry.
func (s *Session) MarkFailed(reason domain.SubmissionReason) {
	s.Status = domain.StatusError
	s.LastError = &Failure{Reason: reason, Message: GenericFailureMessage}
}

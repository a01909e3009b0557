package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCoupon    = errors.New("invalid coupon code")
	ErrLimitExceeded    = errors.New("package limit exceeded")
	ErrValidationFailed = errors.New("validation failed")
	ErrSubmissionFailed = errors.New("order submission failed")
	ErrTermsNotAccepted = errors.New("terms must be accepted before submitting")

	ErrEmptyCart         = errors.New("cart is empty")
	ErrWrongStep         = errors.New("not allowed at the current checkout step")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInvalidPrice      = errors.New("unit price cannot be negative")
	ErrProductIDRequired = errors.New("product id is required")
	ErrProductNotFound   = errors.New("product not found")
	ErrPackageNotFound   = errors.New("package not found")
	ErrSessionNotFound   = errors.New("checkout session not found")
	ErrPackageLine       = errors.New("packages are chosen with the package selector")
	ErrSubmitInProgress  = errors.New("an order submission is already in progress")
)

// LimitExceededError reports a rejected addition against the active package.
type LimitExceededError struct {
	Package   string
	Category  Category
	Limit     int
	Current   int
	Requested int
}

func (e *LimitExceededError) Error() string {
	if e.Limit == 0 {
		return fmt.Sprintf("package %q does not allow %s add-ons", e.Package, e.Category)
	}
	return fmt.Sprintf("package %q allows at most %d %s item(s); cart has %d, requested %d more",
		e.Package, e.Limit, e.Category, e.Current, e.Requested)
}

func (e *LimitExceededError) Unwrap() error { return ErrLimitExceeded }

// FieldError is one unmet field-level condition.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every failing field of a wizard step.
type ValidationError struct {
	Step   Step
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("%s step: %s", e.Step, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// SubmissionReason narrows a submission failure for diagnostics.
// Users always see the same generic message.
type SubmissionReason string

const (
	ReasonTransport SubmissionReason = "transport"
	ReasonRejected  SubmissionReason = "rejected"
	ReasonTimeout   SubmissionReason = "timeout"
)

type SubmissionError struct {
	Reason SubmissionReason
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", ErrSubmissionFailed, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %v", ErrSubmissionFailed, e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubmissionFailed}
	}
	return []error{ErrSubmissionFailed, e.Err}
}

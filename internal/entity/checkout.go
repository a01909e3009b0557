package domain

import (
	"fmt"
	"strings"
)

// Step is the checkout wizard position.
type Step string

const (
	StepIdentity Step = "identity"
	StepAddress  Step = "address"
	StepPayment  Step = "payment"
)

var stepOrder = []Step{StepIdentity, StepAddress, StepPayment}

func (s Step) index() int {
	for i, v := range stepOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// Next returns the following step; ok is false at the last step.
func (s Step) Next() (Step, bool) {
	i := s.index()
	if i < 0 || i == len(stepOrder)-1 {
		return s, false
	}
	return stepOrder[i+1], true
}

// Prev returns the preceding step; ok is false at the first step.
func (s Step) Prev() (Step, bool) {
	i := s.index()
	if i <= 0 {
		return s, false
	}
	return stepOrder[i-1], true
}

// Status tracks the order-intent submission.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func ParseShippingMethod(s string) (ShippingMethod, error) {
	switch m := ShippingMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case ShippingStandard, ShippingExpress:
		return m, nil
	default:
		return "", fmt.Errorf("unknown shipping method %q", s)
	}
}

// Customer holds the identity and delivery fields collected by the wizard.
type Customer struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"notes,omitempty"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

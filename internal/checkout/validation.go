package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

const minPhoneDigits = 9

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)
	phoneFormat  = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("storefront_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("storefront_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone accepts digits and the usual formatting symbols, with at least
// nine characters left once spaces, dashes and parentheses are removed.
func ValidPhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	return len(phoneFormat.Replace(s)) >= minPhoneDigits
}

func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

type identityForm struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,storefront_email"`
	Phone     string `json:"phone" validate:"required,storefront_phone"`
}

type addressForm struct {
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

// ValidateStep checks the fields gating the exit from step. Every failing
// field is reported, not only the first.
func ValidateStep(step domain.Step, c domain.Customer) error {
	var form any
	switch step {
	case domain.StepIdentity:
		form = identityForm{
			FirstName: strings.TrimSpace(c.FirstName),
			LastName:  strings.TrimSpace(c.LastName),
			Email:     strings.TrimSpace(c.Email),
			Phone:     strings.TrimSpace(c.Phone),
		}
	case domain.StepAddress:
		form = addressForm{
			Address:    strings.TrimSpace(c.Address),
			City:       strings.TrimSpace(c.City),
			PostalCode: strings.TrimSpace(c.PostalCode),
		}
	default:
		return nil
	}

	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Step: step}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{
			Field:   fe.Field(),
			Rule:    ruleName(fe.Tag()),
			Message: ruleMessage(fe.Tag()),
		})
	}
	return out
}

func ruleName(tag string) string {
	switch tag {
	case "storefront_email":
		return "email"
	case "storefront_phone":
		return "phone"
	default:
		return tag
	}
}

func ruleMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "storefront_email":
		return "must look like name@example.com"
	case "storefront_phone":
		return "must contain at least 9 digits"
	default:
		return "is invalid"
	}
}

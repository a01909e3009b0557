package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type errorResp struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
	Limit   *limitResp          `json:"limit,omitempty"`
}

type limitResp struct {
	Package   string          `json:"package"`
	Category  domain.Category `json:"category"`
	Limit     int             `json:"limit"`
	Current   int             `json:"current"`
	Requested int             `json:"requested"`
}

// writeError maps use case errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var (
		verr   *domain.ValidationError
		lerr   *domain.LimitExceededError
		subm   *domain.SubmissionError
		resp   = errorResp{Message: err.Error()}
		status int
	)

	switch {
	case errors.As(err, &verr):
		status, resp.Error, resp.Fields = http.StatusUnprocessableEntity, "validation_failed", verr.Fields
	case errors.As(err, &lerr):
		status, resp.Error = http.StatusUnprocessableEntity, "limit_exceeded"
		resp.Limit = &limitResp{Package: lerr.Package, Category: lerr.Category, Limit: lerr.Limit, Current: lerr.Current, Requested: lerr.Requested}
	case errors.As(err, &subm):
		status, resp.Error, resp.Message = http.StatusBadGateway, "submission_failed", checkout.GenericFailureMessage
	case errors.Is(err, domain.ErrValidationFailed):
		status, resp.Error = http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, domain.ErrInvalidCoupon):
		status, resp.Error = http.StatusUnprocessableEntity, "invalid_coupon"
	case errors.Is(err, domain.ErrTermsNotAccepted):
		status, resp.Error = http.StatusUnprocessableEntity, "terms_not_accepted"
	case errors.Is(err, domain.ErrEmptyCart):
		status, resp.Error = http.StatusUnprocessableEntity, "empty_cart"
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrPackageNotFound),
		errors.Is(err, usecase.ErrConfirmationNotFound),
		errors.Is(err, usecase.ErrIntentNotFound):
		status, resp.Error = http.StatusNotFound, "not_found"
	case errors.Is(err, usecase.ErrDuplicate):
		status, resp.Error = http.StatusConflict, "duplicate_request"
	case errors.Is(err, domain.ErrWrongStep), errors.Is(err, domain.ErrSubmitInProgress):
		status, resp.Error = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrPackageLine):
		status, resp.Error = http.StatusBadRequest, "bad_request"
	default:
		logging.From(c).Error("unhandled error", "err", err)
		status, resp.Error, resp.Message = http.StatusInternalServerError, "server_error", "internal error"
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResp{Error: "bad_request", Message: msg})
}

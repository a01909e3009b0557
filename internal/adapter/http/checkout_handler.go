package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/gorder-checkout/internal/checkout"
	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/pricing"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// catalogTimeout bounds handlers that may call the catalog service.
const catalogTimeout = 5 * time.Second

type CheckoutHandler struct {
	checkout *usecase.Checkout
	submit   *usecase.SubmitOrder
}

func NewCheckoutHandler(co *usecase.Checkout, submit *usecase.SubmitOrder) *CheckoutHandler {
	return &CheckoutHandler{checkout: co, submit: submit}
}

type sessionResp struct {
	*checkout.Session
	Quote pricing.Quote `json:"quote"`
}

func (h *CheckoutHandler) respond(c *gin.Context, status int, s *checkout.Session, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, sessionResp{Session: s, Quote: s.Quote(h.checkout.Rules())})
}

func (h *CheckoutHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), catalogTimeout)
}

type createSessionReq struct {
	ProductID      string            `json:"productId" form:"productId"`
	Quantity       int               `json:"quantity" form:"quantity"`
	Package        string            `json:"package" form:"package"`
	PackageOptions map[string]string `json:"packageOptions" form:"-"`
}

// CreateSession accepts an optional deep link, either as a JSON body or
// as query parameters (?productId=...&package=...).
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid JSON body")
			return
		}
	} else if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.checkout.CreateSession(ctx, usecase.DeepLink{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		PackageSlug:    req.Package,
		PackageOptions: req.PackageOptions,
	})
	h.respond(c, http.StatusCreated, s, err)
}

func (h *CheckoutHandler) GetSession(c *gin.Context) {
	s, err := h.checkout.Session(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) ResetSession(c *gin.Context) {
	s, err := h.checkout.ResetSession(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

type addItemReq struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

func (h *CheckoutHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.checkout.AddProduct(ctx, c.Param("id"), req.ProductID, qty)
	h.respond(c, http.StatusOK, s, err)
}

type updateItemReq struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// UpdateItem sets a line's quantity; zero or less removes it.
func (h *CheckoutHandler) UpdateItem(c *gin.Context) {
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity is required")
		return
	}
	s, err := h.checkout.UpdateQuantity(c.Request.Context(), c.Param("id"), c.Param("productId"), *req.Quantity)
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	s, err := h.checkout.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("productId"))
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) ClearCart(c *gin.Context) {
	s, err := h.checkout.ClearCart(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

type packageReq struct {
	Slug    string            `json:"slug" binding:"required"`
	Options map[string]string `json:"options"`
}

func (h *CheckoutHandler) SelectPackage(c *gin.Context) {
	var req packageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "slug is required")
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.checkout.SelectPackage(ctx, c.Param("id"), req.Slug, req.Options)
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) ClearPackage(c *gin.Context) {
	s, err := h.checkout.ClearPackage(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

type couponReq struct {
	Code string `json:"code" binding:"required"`
}

func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	s, err := h.checkout.ApplyCoupon(c.Request.Context(), c.Param("id"), req.Code)
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) RemoveCoupon(c *gin.Context) {
	s, err := h.checkout.RemoveCoupon(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

type shippingReq struct {
	Method string `json:"method" binding:"required"`
}

func (h *CheckoutHandler) SetShipping(c *gin.Context) {
	var req shippingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "method is required")
		return
	}
	m, err := domain.ParseShippingMethod(req.Method)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	s, err := h.checkout.SetShippingMethod(c.Request.Context(), c.Param("id"), m)
	h.respond(c, http.StatusOK, s, err)
}

type customerReq struct {
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	PostalCode    *string `json:"postalCode"`
	Notes         *string `json:"notes"`
	TermsAccepted *bool   `json:"termsAccepted"`
}

func (h *CheckoutHandler) UpdateCustomer(c *gin.Context) {
	var req customerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	s, err := h.checkout.UpdateCustomer(c.Request.Context(), c.Param("id"), usecase.CustomerPatch(req))
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) Next(c *gin.Context) {
	s, err := h.checkout.Next(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

func (h *CheckoutHandler) Back(c *gin.Context) {
	s, err := h.checkout.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, http.StatusOK, s, err)
}

type submitResp struct {
	OrderID         string              `json:"orderId"`
	Confirmation    domain.Confirmation `json:"confirmation"`
	RedirectAfterMs int64               `json:"redirectAfterMs"`
	Replayed        bool                `json:"replayed,omitempty"`
}

// Submit sends the order intent. X-Idempotency-Key makes retries safe.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	out, err := h.submit.Execute(c.Request.Context(), usecase.SubmitOrderInput{
		SessionID:      c.Param("id"),
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, submitResp{
		OrderID:         out.OrderID,
		Confirmation:    out.Confirmation,
		RedirectAfterMs: out.RedirectAfter.Milliseconds(),
		Replayed:        out.Replayed,
	})
}

func (h *CheckoutHandler) Confirmation(c *gin.Context) {
	conf, err := h.submit.LastConfirmation(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

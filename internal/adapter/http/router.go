package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aq2208/gorder-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-checkout/internal/logging"
)

func NewRouter(h *CheckoutHandler, ops *OpsHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(logging.New("http")))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", h.CreateSession)

		s := v1.Group("/sessions/:id")
		s.GET("", h.GetSession)
		s.DELETE("", h.ResetSession)

		s.POST("/items", h.AddItem)
		s.PATCH("/items/:productId", h.UpdateItem)
		s.DELETE("/items/:productId", h.RemoveItem)
		s.DELETE("/items", h.ClearCart)

		s.PUT("/package", h.SelectPackage)
		s.DELETE("/package", h.ClearPackage)
		s.PUT("/coupon", h.ApplyCoupon)
		s.DELETE("/coupon", h.RemoveCoupon)
		s.PUT("/shipping", h.SetShipping)
		s.PUT("/customer", h.UpdateCustomer)

		s.POST("/next", h.Next)
		s.POST("/back", h.Back)
		s.POST("/submit", h.Submit)
		s.GET("/confirmation", h.Confirmation)

		if ops != nil {
			v1.GET("/ops/order-intents/:id", authz.Require("orders.read"), ops.GetOrderIntent)
		}
	}

	return r
}

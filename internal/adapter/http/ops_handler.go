package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// OrderIntentReader is the ledger read side used by ops.
type OrderIntentReader interface {
	Find(ctx context.Context, orderID string) ([]*usecase.OrderIntentRecord, error)
}

type OpsHandler struct {
	intents OrderIntentReader
}

func NewOpsHandler(intents OrderIntentReader) *OpsHandler {
	return &OpsHandler{intents: intents}
}

// GetOrderIntent lists every intent recorded under a display order id.
// Display ids are short and can repeat, so the result is a list.
func (h *OpsHandler) GetOrderIntent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	recs, err := h.intents.Find(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		out = append(out, gin.H{
			"intent_id":       rec.IntentID,
			"id":              rec.ID,
			"session_id":      rec.SessionID,
			"customer_name":   rec.CustomerName,
			"email":           rec.Email,
			"phone":           rec.Phone,
			"city":            rec.City,
			"shipping_method": rec.ShippingMethod,
			"coupon":          rec.Coupon,
			"subtotal":        rec.Subtotal,
			"discount":        rec.Discount,
			"shipping":        rec.Shipping,
			"total":           rec.Total,
			"items_json":      rec.ItemsJSON,
			"submitted_at":    rec.SubmittedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("id"), "intents": out})
}

package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/aq2208/gorder-checkout/internal/logging"
)

// RecordOrderIntent writes submitted order intents to the ledger. It is
// driven by the queue consumer and must tolerate redelivery.
type RecordOrderIntent struct {
	repo OrderIntentRepo
}

func NewRecordOrderIntent(repo OrderIntentRepo) *RecordOrderIntent {
	return &RecordOrderIntent{repo: repo}
}

func (uc *RecordOrderIntent) Handle(ctx context.Context, msg OrderIntentSubmittedMsg) error {
	items, err := json.Marshal(msg.Items)
	if err != nil {
		return err
	}
	rec := &OrderIntentRecord{
		IntentID:       intentID(msg),
		ID:             msg.OrderID,
		SessionID:      msg.SessionID,
		CustomerName:   msg.Customer.FullName(),
		Email:          msg.Customer.Email,
		Phone:          msg.Customer.Phone,
		City:           msg.Customer.City,
		ShippingMethod: string(msg.ShippingMethod),
		Coupon:         msg.Coupon,
		Subtotal:       msg.Subtotal,
		Discount:       msg.Discount,
		Shipping:       msg.Shipping,
		Total:          msg.Total,
		ItemsJSON:      string(items),
		SubmittedAt:    msg.SubmittedAt,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		return err
	}
	logging.FromCtx(ctx).Info("order intent recorded", "intent_id", rec.IntentID, "order_id", rec.ID, "total", rec.Total)
	return nil
}

// Find returns every intent recorded under a display order id.
func (uc *RecordOrderIntent) Find(ctx context.Context, orderID string) ([]*OrderIntentRecord, error) {
	return uc.repo.ListByOrderID(ctx, orderID)
}

// intentID falls back to a name-based uuid for messages published without
// one, so redelivery of the same message still maps to the same row.
func intentID(msg OrderIntentSubmittedMsg) string {
	if msg.IntentID != "" {
		return msg.IntentID
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(msg.SessionID+"/"+msg.OrderID+"/"+msg.SubmittedAt.UTC().Format(time.RFC3339Nano))).String()
}

package queue

import (
	"context"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// IntentRecorder is the ledger side of the order-intent stream.
type IntentRecorder interface {
	Handle(ctx context.Context, msg usecase.OrderIntentSubmittedMsg) error
}

// NewOrderIntentHandler decodes order.intent.submitted deliveries for the recorder.
func NewOrderIntentHandler(rec IntentRecorder) Handler {
	return JSONHandler[usecase.OrderIntentSubmittedMsg]{HandleFunc: rec.Handle}
}

var _ IntentRecorder = (*usecase.RecordOrderIntent)(nil)

package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type MySQLOrderIntentRepo struct{ db *sqlx.DB }

func NewMySQLOrderIntentRepo(db *sqlx.DB) *MySQLOrderIntentRepo {
	return &MySQLOrderIntentRepo{db: db}
}

const insertIntent = `
INSERT IGNORE INTO order_intents
  (intent_id,id,session_id,customer_name,email,phone,city,shipping_method,coupon,subtotal,discount,shipping,total,items_json,submitted_at)
VALUES
  (:intent_id,:id,:session_id,:customer_name,:email,:phone,:city,:shipping_method,:coupon,:subtotal,:discount,:shipping,:total,:items_json,:submitted_at)`

// Create ignores a second insert of the same intent id so queue redelivery is harmless.
func (r *MySQLOrderIntentRepo) Create(ctx context.Context, rec *usecase.OrderIntentRecord) error {
	if _, err := r.db.NamedExecContext(ctx, insertIntent, rec); err != nil {
		return errors.Wrapf(err, "insert order intent %s", rec.IntentID)
	}
	return nil
}

func (r *MySQLOrderIntentRepo) ListByOrderID(ctx context.Context, orderID string) ([]*usecase.OrderIntentRecord, error) {
	var recs []*usecase.OrderIntentRecord
	err := r.db.SelectContext(ctx, &recs, `
SELECT intent_id,id,session_id,customer_name,email,phone,city,shipping_method,coupon,subtotal,discount,shipping,total,items_json,submitted_at
FROM order_intents WHERE id=? ORDER BY submitted_at DESC, intent_id`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list order intents %s", orderID)
	}
	if len(recs) == 0 {
		return nil, usecase.ErrIntentNotFound
	}
	return recs, nil
}

var _ usecase.OrderIntentRepo = (*MySQLOrderIntentRepo)(nil)

package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
)

var (
	ErrDuplicate            = errors.New("duplicate idempotency key")
	ErrIntakeRejected       = errors.New("order intake rejected the submission")
	ErrConfirmationNotFound = errors.New("no confirmation recorded")
	ErrIntentNotFound       = errors.New("order intent not found")
)

// CatalogLookup resolves products and packages. Implementations return
// domain.ErrProductNotFound / domain.ErrPackageNotFound for unknown ids.
type CatalogLookup interface {
	Product(ctx context.Context, id string) (domain.Product, error)
	Package(ctx context.Context, slug string) (domain.Package, error)
}

// ProductCache drops cached catalog entries when the catalog changes.
type ProductCache interface {
	Evict(ctx context.Context, productID string) error
	EvictPackage(ctx context.Context, slug string) error
}

// OrderForm is the form-encoded payload accepted by the intake endpoint.
type OrderForm struct {
	Name           string
	Phone          string
	Email          string
	City           string
	Message        string
	RecaptchaToken string
}

// OrderIntake returns ErrIntakeRejected when the endpoint answers without ok.
type OrderIntake interface {
	Submit(ctx context.Context, form OrderForm) error
}

// ChallengeProvider fetches an anti-abuse token. ok=false means no token is
// available; callers carry on without one.
type ChallengeProvider interface {
	Token(ctx context.Context) (token string, ok bool)
}

type ConfirmationStore interface {
	Save(ctx context.Context, sessionID string, c domain.Confirmation) error
	Load(ctx context.Context, sessionID string) (domain.Confirmation, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type IntentPublisher interface {
	PublishSubmitted(ctx context.Context, msg OrderIntentSubmittedMsg) error
}

// Persistence shape (kept out of domain).
type OrderIntentRecord struct {
	IntentID       string    `db:"intent_id"`
	ID             string    `db:"id"`
	SessionID      string    `db:"session_id"`
	CustomerName   string    `db:"customer_name"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	City           string    `db:"city"`
	ShippingMethod string    `db:"shipping_method"`
	Coupon         string    `db:"coupon"`
	Subtotal       int64     `db:"subtotal"`
	Discount       int64     `db:"discount"`
	Shipping       int64     `db:"shipping"`
	Total          int64     `db:"total"`
	ItemsJSON      string    `db:"items_json"`
	SubmittedAt    time.Time `db:"submitted_at"`
}

// OrderIntentRepo is keyed by IntentID; Create ignores a repeated IntentID.
// Display order ids are not unique, so ListByOrderID may return several
// records, newest first, and returns ErrIntentNotFound when there are none.
type OrderIntentRepo interface {
	Create(ctx context.Context, r *OrderIntentRecord) error
	ListByOrderID(ctx context.Context, orderID string) ([]*OrderIntentRecord, error)
}

// Recorder receives checkout business metrics.
type Recorder interface {
	Submission(outcome string)
	LimitRejected(category domain.Category)
}

type nopRecorder struct{}

func (nopRecorder) Submission(string)             {}
func (nopRecorder) LimitRejected(domain.Category) {}

package usecase_test

import (
	"context"
	"sync"

	domain "github.com/aq2208/gorder-checkout/internal/entity"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

type mockCatalog struct {
	products map[string]domain.Product
	packages map[string]domain.Package
	err      error
	calls    int
}

func (m *mockCatalog) Product(_ context.Context, id string) (domain.Product, error) {
	m.calls++
	if m.err != nil {
		return domain.Product{}, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) Package(_ context.Context, slug string) (domain.Package, error) {
	m.calls++
	if m.err != nil {
		return domain.Package{}, m.err
	}
	p, ok := m.packages[slug]
	if !ok {
		return domain.Package{}, domain.ErrPackageNotFound
	}
	return p, nil
}

var _ usecase.CatalogLookup = &mockCatalog{}

type mockIntake struct {
	mu       sync.Mutex
	forms    []usecase.OrderForm
	err      error
	block    bool
	onSubmit func()
}

func (m *mockIntake) Submit(ctx context.Context, form usecase.OrderForm) error {
	if m.onSubmit != nil {
		m.onSubmit()
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, form)
	return m.err
}

var _ usecase.OrderIntake = &mockIntake{}

type mockChallenge struct {
	token string
}

func (m *mockChallenge) Token(context.Context) (string, bool) {
	return m.token, m.token != ""
}

var _ usecase.ChallengeProvider = &mockChallenge{}

type mockConfirmations struct {
	store map[string]domain.Confirmation
}

func (m *mockConfirmations) Save(_ context.Context, sessionID string, c domain.Confirmation) error {
	m.store[sessionID] = c
	return nil
}

func (m *mockConfirmations) Load(_ context.Context, sessionID string) (domain.Confirmation, error) {
	c, ok := m.store[sessionID]
	if !ok {
		return domain.Confirmation{}, usecase.ErrConfirmationNotFound
	}
	return c, nil
}

var _ usecase.ConfirmationStore = &mockConfirmations{}

type mockIdempotency struct {
	locks map[string]bool
	vals  map[string]string
}

func newMockIdempotency() *mockIdempotency {
	return &mockIdempotency{locks: map[string]bool{}, vals: map[string]string{}}
}

func (m *mockIdempotency) TryLock(_ context.Context, scope, key string) (bool, error) {
	if m.locks[scope+":"+key] {
		return false, nil
	}
	m.locks[scope+":"+key] = true
	return true, nil
}

func (m *mockIdempotency) Release(_ context.Context, scope, key string) error {
	delete(m.locks, scope+":"+key)
	return nil
}

func (m *mockIdempotency) Remember(_ context.Context, scope, key, value string) error {
	m.vals[scope+":"+key] = value
	return nil
}

func (m *mockIdempotency) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

var _ usecase.IdempotencyStore = &mockIdempotency{}

type mockPublisher struct {
	msgs []usecase.OrderIntentSubmittedMsg
	err  error
}

func (m *mockPublisher) PublishSubmitted(_ context.Context, msg usecase.OrderIntentSubmittedMsg) error {
	m.msgs = append(m.msgs, msg)
	return m.err
}

var _ usecase.IntentPublisher = &mockPublisher{}

type mockRecorder struct {
	outcomes []string
	limits   []domain.Category
}

func (m *mockRecorder) Submission(outcome string)              { m.outcomes = append(m.outcomes, outcome) }
func (m *mockRecorder) LimitRejected(category domain.Category) { m.limits = append(m.limits, category) }

var _ usecase.Recorder = &mockRecorder{}

type mockIntentRepo struct {
	rows []*usecase.OrderIntentRecord
}

func (m *mockIntentRepo) Create(_ context.Context, r *usecase.OrderIntentRecord) error {
	for _, row := range m.rows {
		if row.IntentID == r.IntentID {
			return nil
		}
	}
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *mockIntentRepo) ListByOrderID(_ context.Context, orderID string) ([]*usecase.OrderIntentRecord, error) {
	var out []*usecase.OrderIntentRecord
	for _, row := range m.rows {
		if row.ID == orderID {
			out = append(out, row)
		}
	}
	if len(out) == 0 {
		return nil, usecase.ErrIntentNotFound
	}
	return out, nil
}

var _ usecase.OrderIntentRepo = &mockIntentRepo{}

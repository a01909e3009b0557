// Package session owns checkout sessions between requests. Every mutation
// goes through Manager.Do, which serialises changes per session id.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aq2208/gorder-checkout/internal/checkout"
)

// Store persists sessions. Load returns domain.ErrSessionNotFound for
// unknown ids and always hands out a private copy.
type Store interface {
	Load(ctx context.Context, id string) (*checkout.Session, error)
	Save(ctx context.Context, s *checkout.Session) error
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	store Store
	locks *keyedMutex
	now   func() time.Time
	newID func() string
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		locks: newKeyedMutex(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Create starts a new session. prepare, if given, runs before the first
// save, so a failing deep-link prefill never leaves half-built state.
func (m *Manager) Create(ctx context.Context, prepare func(*checkout.Session) error) (*checkout.Session, error) {
	s := checkout.NewSession(m.newID(), m.now().UTC())
	if prepare != nil {
		if err := prepare(s); err != nil {
			return nil, err
		}
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Do loads the session, applies fn and saves the result while holding the
// session's lock. The session is saved even when fn fails, because some
// failures (a rejected submission) are state transitions themselves.
func (m *Manager) Do(ctx context.Context, id string, fn func(*checkout.Session) error) (*checkout.Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	fnErr := fn(s)
	s.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, fnErr
}

// Checkpoint saves an intermediate state from inside a Do callback, so
// readers see it while fn is still running (e.g. Submitting during the
// intake call). It must only be called with the session's lock held.
func (m *Manager) Checkpoint(ctx context.Context, s *checkout.Session) error {
	s.UpdatedAt = m.now().UTC()
	return m.store.Save(ctx, s)
}

// View returns a read-only copy without taking the lock.
func (m *Manager) View(ctx context.Context, id string) (*checkout.Session, error) {
	return m.store.Load(ctx, id)
}

func (m *Manager) Reset(ctx context.Context, id string) (*checkout.Session, error) {
	return m.Do(ctx, id, func(s *checkout.Session) error {
		s.Reset(m.now().UTC())
		return nil
	})
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*refMutex{}}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

package userstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/otherus/otherus/pkg/auth"
)

var (
	_ auth.UserStorage  = (*MemoryStore)(nil)
	_ auth.StateStorage = (*MemoryStore)(nil)
)

type stateEntry struct {
	provider  string
	expiresAt time.Time
}

// MemoryStore keeps users and OAuth states in process memory with the same
// contracts as RedisStore. Returned users are copies.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[string]record
	emails map[string]string
	states map[string]stateEntry
	now    func() time.Time
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		users:  make(map[string]record),
		emails: make(map[string]string),
		states: make(map[string]stateEntry),
		now:    o.now,
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, user *auth.User) error {
	if _, err := encodeRecord(user); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.emails[user.Email]; taken {
		return auth.ErrEmailAlreadyExists
	}
	m.users[user.ID] = newRecord(user)
	m.emails[user.Email] = user.ID
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return r.user(), nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	r, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return r.user(), nil
}

// UpdateUser replaces an existing record. The email index is not changed.
func (m *MemoryStore) UpdateUser(_ context.Context, user *auth.User) error {
	if _, err := encodeRecord(user); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	m.users[user.ID] = newRecord(user)
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.users[id]
	if !ok {
		return nil
	}
	if m.emails[r.Email] == id {
		delete(m.emails, r.Email)
	}
	delete(m.users, id)
	return nil
}

// ListUsers returns all users ordered by creation time, then id.
func (m *MemoryStore) ListUsers(_ context.Context) ([]*auth.User, error) {
	m.mu.RLock()
	users := make([]*auth.User, 0, len(m.users))
	for _, r := range m.users {
		users = append(users, r.user())
	}
	m.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

// Reconcile drops expired OAuth states. User writes are atomic here, so
// there is nothing else to repair.
func (m *MemoryStore) Reconcile(_ context.Context, _ time.Duration) (ReconcileReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for nonce, st := range m.states {
		if !now.Before(st.expiresAt) {
			delete(m.states, nonce)
		}
	}
	return ReconcileReport{}, nil
}

func (m *MemoryStore) StoreState(_ context.Context, state, provider string, ttl time.Duration) error {
	if state == "" || provider == "" || ttl <= 0 {
		return ErrInvalidState
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if st, ok := m.states[state]; ok && now.Before(st.expiresAt) {
		return ErrInvalidState
	}
	m.states[state] = stateEntry{provider: provider, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryStore) ConsumeState(_ context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[state]
	if !ok {
		return "", auth.ErrStateNotFound
	}
	delete(m.states, state)
	if !m.now().Before(st.expiresAt) {
		return "", auth.ErrStateNotFound
	}
	return st.provider, nil
}

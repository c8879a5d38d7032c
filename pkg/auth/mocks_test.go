package auth

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockUserStorage is a mock implementation of UserStorage.
type MockUserStorage struct {
	mock.Mock
}

func (m *MockUserStorage) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStorage) GetUserByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserStorage) UpdateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStorage) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockStateStorage is a mock implementation of StateStorage.
type MockStateStorage struct {
	mock.Mock
}

func (m *MockStateStorage) StoreState(ctx context.Context, state, provider string, ttl time.Duration) error {
	args := m.Called(ctx, state, provider, ttl)
	return args.Error(0)
}

func (m *MockStateStorage) ConsumeState(ctx context.Context, state string) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

// MockTokens is a mock implementation of TokenIssuer and TokenVerifier.
type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *MockTokens) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

// MockProviderAdapter is a mock implementation of ProviderAdapter.
type MockProviderAdapter struct {
	mock.Mock
}

func (m *MockProviderAdapter) ProviderID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockProviderAdapter) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockProviderAdapter) ExchangeIdentity(ctx context.Context, code string) (Identity, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(Identity), args.Error(1)
}

func newMockAdapter(id string) *MockProviderAdapter {
	a := &MockProviderAdapter{}
	a.On("ProviderID").Return(id).Maybe()
	return a
}

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// DefaultStateTTL bounds how long a user may take to finish the provider consent screen.
const DefaultStateTTL = 10 * time.Minute

const stateBytes = 32

// StateManager issues and redeems single-use OAuth state nonces.
// The nonce is the only correlation between the login and callback requests.
type StateManager struct {
	storage StateStorage
	ttl     time.Duration
}

func NewStateManager(storage StateStorage, ttl time.Duration) *StateManager {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateManager{storage: storage, ttl: ttl}
}

// Begin stores a fresh nonce bound to provider and returns it.
func (m *StateManager) Begin(ctx context.Context, provider string) (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)

	if err := m.storage.StoreState(ctx, state, provider, m.ttl); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return state, nil
}

// Redeem consumes state and returns the provider it was issued for.
// A second redeem of the same nonce fails with ErrInvalidState.
func (m *StateManager) Redeem(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}

	provider, err := m.storage.ConsumeState(ctx, state)
	if errors.Is(err, ErrStateNotFound) {
		return "", ErrInvalidState
	}
	if err != nil {
		return "", fmt.Errorf("consume state: %w", err)
	}
	return provider, nil
}

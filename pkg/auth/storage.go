package auth

import (
	"context"
	"time"
)

// UserStorage persists user records keyed by id with a unique email index.
//
// CreateUser must return ErrEmailAlreadyExists when another record already
// owns the email; the check and the write are one atomic step. Lookups return
// ErrUserNotFound for missing records. UpdateUser never recreates a deleted
// record. DeleteUser on a missing id is a no-op.
type UserStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
}

// StateStorage keeps short-lived OAuth state nonces.
// ConsumeState reads and deletes in one atomic step and returns
// ErrStateNotFound for unknown, expired or already consumed nonces.
type StateStorage interface {
	StoreState(ctx context.Context, state, provider string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (string, error)
}

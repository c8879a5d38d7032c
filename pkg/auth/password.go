package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher hashes and checks passwords with bcrypt.
// Every hash carries its own random salt and cost.
type PasswordHasher struct {
	cost int
	// dummy is compared against when the account does not exist, so that
	// a failed login takes the same time either way.
	dummy []byte
}

type HasherOption func(*PasswordHasher)

// WithBcryptCost sets the work factor. Out-of-range values keep the default.
func WithBcryptCost(cost int) HasherOption {
	return func(h *PasswordHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

func NewPasswordHasher(opts ...HasherOption) *PasswordHasher {
	h := &PasswordHasher{cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(h)
	}
	h.dummy, _ = bcrypt.GenerateFromPassword([]byte("other-us-timing-equalizer"), h.cost)
	return h
}

// Hash returns a self-describing bcrypt hash of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed or empty hashes
// yield false.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// burn performs a comparison whose result is discarded.
func (h *PasswordHasher) burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}

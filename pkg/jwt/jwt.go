package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Config is loaded from the environment.
type Config struct {
	SecretKey     string `env:"SECRET_KEY,required"`
	Algorithm     string `env:"ALGORITHM" envDefault:"HS256"`
	ExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"60"`
}

const (
	DefaultAlgorithm = "HS256"
	DefaultTTL       = 60 * time.Minute
)

// Option configures a Service.
type Option func(*Service)

// WithAlgorithm selects the HMAC algorithm: HS256, HS384 or HS512.
func WithAlgorithm(alg string) Option {
	return func(s *Service) { s.algorithm = alg }
}

// WithTTL sets the lifetime used by Issue.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service issues and verifies stateless access tokens carrying
// {sub, iat, exp}. There is no revocation list: a token stays valid until
// it expires.
type Service struct {
	key       []byte
	algorithm string
	method    gojwt.SigningMethod
	ttl       time.Duration
	now       func() time.Time
}

// New creates a Service signing with secret.
func New(secret []byte, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}

	s := &Service{
		key:       secret,
		algorithm: DefaultAlgorithm,
		ttl:       DefaultTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	method, ok := gojwt.GetSigningMethod(s.algorithm).(*gojwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSigningMethod, s.algorithm)
	}
	s.method = method

	return s, nil
}

// NewFromConfig creates a Service from environment configuration.
// Options passed explicitly override the config.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	base := []Option{WithAlgorithm(cfg.Algorithm)}
	if cfg.ExpireMinutes > 0 {
		base = append(base, WithTTL(time.Duration(cfg.ExpireMinutes)*time.Minute))
	}
	if cfg.Algorithm == "" {
		base[0] = WithAlgorithm(DefaultAlgorithm)
	}
	return New([]byte(cfg.SecretKey), append(base, opts...)...)
}

// TTL returns the default token lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject valid for the default TTL.
func (s *Service) Issue(subject string) (string, error) {
	return s.IssueWithTTL(subject, s.ttl)
}

// IssueWithTTL signs a token for subject valid for ttl.
func (s *Service) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	now := s.now()
	claims := accessClaims{
		Subject:   subject,
		IssuedAt:  newInstant(now),
		ExpiresAt: newInstant(now.Add(ttl)),
	}

	token, err := gojwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify returns the subject of a token whose signature, algorithm and
// expiry are all valid. Every failure is reported as ErrInvalidToken; an
// expired token additionally matches ErrExpiredToken.
func (s *Service) Verify(token string) (string, error) {
	var claims accessClaims

	_, err := gojwt.ParseWithClaims(token, &claims,
		func(*gojwt.Token) (any, error) { return s.key, nil },
		gojwt.WithValidMethods([]string{s.method.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return "", errors.Join(ErrInvalidToken, ErrExpiredToken)
	case err != nil:
		return "", errors.Join(ErrInvalidToken, err)
	case claims.Subject == "":
		return "", errors.Join(ErrInvalidToken, ErrMissingSubject)
	}

	return claims.Subject, nil
}

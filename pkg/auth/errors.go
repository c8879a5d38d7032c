package auth

import "errors"

// Account errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// OAuth errors
var (
	ErrInvalidState           = errors.New("invalid OAuth state")
	ErrStateNotFound          = errors.New("OAuth state not found or expired")
	ErrUnknownProvider        = errors.New("unknown OAuth provider")
	ErrProviderExchangeFailed = errors.New("failed to exchange authorization code")
	ErrProviderProfileFailed  = errors.New("failed to get user info from provider")
	ErrProviderEmailInUse     = errors.New("email from provider already registered")
)

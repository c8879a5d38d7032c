package account

import (
	"errors"
	"net/http"

	"github.com/otherus/otherus/handler"
	"github.com/otherus/otherus/pkg/auth"
	"github.com/otherus/otherus/pkg/ratelimiter"
	"github.com/otherus/otherus/svc/profile"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{auth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token", "Invalid or expired token"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Incorrect email or password"},
	{auth.ErrEmailAlreadyExists, http.StatusBadRequest, "email_taken", "Email already registered"},
	{auth.ErrInvalidState, http.StatusBadRequest, "invalid_state", "Invalid OAuth state"},
	{auth.ErrProviderExchangeFailed, http.StatusBadRequest, "provider_exchange_failed", "Failed to exchange authorization code"},
	{auth.ErrProviderProfileFailed, http.StatusBadRequest, "provider_profile_failed", "Failed to get provider user info"},
	{auth.ErrProviderEmailInUse, http.StatusBadRequest, "email_in_use", "Email is registered to another account"},
	{auth.ErrUnknownProvider, http.StatusNotFound, "unknown_provider", "OAuth provider is not configured"},
	{auth.ErrUserNotFound, http.StatusNotFound, "user_not_found", "User not found"},
	{ratelimiter.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later"},
	{profile.ErrQueryTooShort, http.StatusBadRequest, "query_too_short", "Query must be at least 2 characters"},
}

// ClassifyError maps auth and profile errors to client responses.
func ClassifyError(err error) (handler.HTTPError, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return handler.NewHTTPError(m.status, m.code, m.message, err), true
		}
	}
	return handler.HTTPError{}, false
}

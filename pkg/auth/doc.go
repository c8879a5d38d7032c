// Package auth implements account registration, password login, OAuth
// sign-in and bearer-token request authentication for the Other Us API.
//
// # Components
//
//   - PasswordHasher wraps bcrypt. Verify never errors; malformed hashes
//     simply do not match.
//   - StateManager issues single-use OAuth state nonces through a
//     StateStorage.
//   - ProviderAdapter hides provider differences. Google and GitHub adapters
//     are built on golang.org/x/oauth2 and normalize the provider profile into
//     an Identity. Providers is the registry the HTTP layer dispatches on.
//   - Service orchestrates Register, Login, BeginOAuth and CompleteOAuth.
//     OAuth identities are linked to existing accounts by email.
//   - Guard verifies bearer tokens and loads the user on protected routes.
//
// Storage is abstracted by UserStorage and StateStorage; the userstore
// package provides Redis and in-memory implementations.
//
// # Usage
//
//	svc := auth.NewService(store, store, tokens,
//	    auth.NewProviders(
//	        auth.NewGoogleAdapter(googleCfg),
//	        auth.NewGitHubAdapter(githubCfg),
//	    ),
//	    auth.WithLogger(log),
//	)
//	guard := auth.NewGuard(tokens, store)
//	r.With(guard.Middleware).Get("/users/me", profileHandler)
//
// # Errors
//
// All failures are sentinel errors from errors.go, possibly wrapped. Use
// errors.Is to map them to HTTP statuses.
package auth

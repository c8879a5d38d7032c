// Package account exposes the HTTP API for sign-up, sign-in and profiles.
//
// Routes:
//
//	POST   /auth/register               JSON sign-up, returns a token envelope
//	POST   /auth/token                  form login (username, password)
//	GET    /auth/{provider}/login       consent URL and state nonce
//	GET    /auth/{provider}/callback    302 to the frontend with a token
//	GET    /users/me                    own profile
//	PUT    /users/me                    partial profile update
//	DELETE /users/me                    delete the account
//	GET    /users/search/query?q=       directory search
//	GET    /users/{id}                  public profile
//	GET    /health                      liveness and store ping
//
// Every /users route requires a bearer token. Errors are JSON objects with
// "detail" and "code" keys.
package account

// Package app assembles the Other Us API from its configuration: it opens
// the user store, builds the auth, profile and account services, and runs
// the HTTP server next to the scheduled index reconciliation.
package app

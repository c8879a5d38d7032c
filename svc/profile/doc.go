// Package profile implements the profile and directory operations available
// to signed-in users: reading and editing one's own profile, deleting the
// account, viewing other users and substring search over the directory.
//
// The package works on auth.User records and depends only on the Store
// interface, so both userstore implementations plug in directly.
package profile

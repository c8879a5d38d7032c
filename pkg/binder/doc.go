// Package binder decodes HTTP request data into typed request structs.
//
// Each binder reads one source: JSON bodies, url-encoded or multipart form
// fields, query parameters or router path parameters. Binders are plain
// functions and compose with handler.Wrap:
//
//	type searchRequest struct {
//		Query string `query:"q"`
//	}
//
//	r.Get("/users/search/query", handler.Wrap(searchUsers,
//		handler.WithBinders[handler.Context, searchRequest](binder.Query()),
//	))
//
// Struct tags name the source key (`form:"username"`, `query:"q"`,
// `path:"id"`); "-" skips a field and untagged fields use the lowercased
// field name. Strings, signed and unsigned integers, bools, pointers to
// those and string slices are supported. Every error wraps one of the
// package sentinels so callers can map failures to a response status.
package binder

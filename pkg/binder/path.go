package binder

import (
	"fmt"
	"net/http"
)

// PathExtractor returns the value of a named route parameter, such as
// chi.URLParam.
type PathExtractor func(r *http.Request, name string) string

// Path binds route parameters tagged `path:"name"` using extract.
//
//	r.Get("/users/{id}", handler.Wrap(getUser,
//		handler.WithBinders[getUserRequest](binder.Path(chi.URLParam)),
//	))
func Path(extract PathExtractor) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extract == nil {
			return fmt.Errorf("%w: nil extractor", ErrFailedToParsePath)
		}
		return bindFields(v, "path", func(name string) []string {
			if val := extract(r, name); val != "" {
				return []string{val}
			}
			return nil
		}, ErrFailedToParsePath)
	}
}

package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// DefaultMaxMemory bounds the memory used when parsing multipart forms.
const DefaultMaxMemory = 10 << 20

// Form binds application/x-www-form-urlencoded or multipart/form-data fields
// tagged `form:"name"`. Uploaded files are not bound.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return fmt.Errorf("%w: expected a form content type", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsupportedMediaType, err)
		}

		switch mediaType {
		case "application/x-www-form-urlencoded":
			err = r.ParseForm()
		case "multipart/form-data":
			err = r.ParseMultipartForm(DefaultMaxMemory)
		default:
			return fmt.Errorf("%w: got %s, expected a form", ErrUnsupportedMediaType, mediaType)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToParseForm, err)
		}

		return bindValues(v, "form", r.PostForm, ErrFailedToParseForm)
	}
}

func requireMediaType(r *http.Request, want string) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return fmt.Errorf("%w: expected %s", ErrMissingContentType, want)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedMediaType, err)
	}
	if mediaType != want {
		return fmt.Errorf("%w: got %s, expected %s", ErrUnsupportedMediaType, mediaType, want)
	}
	return nil
}

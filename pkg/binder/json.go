package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxJSONSize caps request bodies read by JSON.
const DefaultMaxJSONSize = 1 << 20

// JSON decodes an application/json body into v. Unknown fields are ignored
// so clients may send whole objects back; trailing data after the first
// value is rejected.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if err := requireMediaType(r, "application/json"); err != nil {
			return err
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %w", ErrFailedToParseJSON, err)
		}
		if len(body) > DefaultMaxJSONSize {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrFailedToParseJSON, DefaultMaxJSONSize)
		}
		if len(body) == 0 {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(body, v); err != nil {
			switch {
			case errors.As(err, &syntaxErr):
				return fmt.Errorf("%w: malformed JSON at offset %d", ErrFailedToParseJSON, syntaxErr.Offset)
			case errors.As(err, &typeErr):
				return fmt.Errorf("%w: field %q must be %s", ErrFailedToParseJSON, typeErr.Field, typeErr.Type)
			default:
				return fmt.Errorf("%w: %w", ErrFailedToParseJSON, err)
			}
		}
		return nil
	}
}

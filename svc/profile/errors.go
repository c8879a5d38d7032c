package profile

import "errors"

var ErrQueryTooShort = errors.New("query must be at least 2 characters")

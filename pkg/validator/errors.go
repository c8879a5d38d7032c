package validator

import "errors"

// ErrValidationFailed matches every Errors value under errors.Is.
var ErrValidationFailed = errors.New("validation failed")

package userstore

import "errors"

var (
	ErrInvalidRecord = errors.New("invalid user record")
	ErrCorruptRecord = errors.New("stored user record cannot be decoded")
	ErrInvalidState  = errors.New("invalid oauth state entry")
)

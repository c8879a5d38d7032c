package app

import "errors"

var (
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	ErrInvalidSchedule    = errors.New("invalid reconcile schedule")
)

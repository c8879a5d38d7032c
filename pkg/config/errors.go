package config

import "errors"

var (
	ErrParsingConfig  = errors.New("config: cannot parse environment")
	ErrLoadingEnvFile = errors.New("config: cannot read env file")
	// ErrConfigNotLoaded is returned by Get for a type Load never cached.
	ErrConfigNotLoaded = errors.New("config: not loaded")
	ErrNilPointer      = errors.New("config: nil target")
)

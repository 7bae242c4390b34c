package config

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound    = errors.New("config file not found")
	ErrMissingKey        = errors.New("required configuration key missing")
	ErrMissingCredential = errors.New("required credential missing")
	ErrInvalidValue      = errors.New("invalid configuration value")
)

// Error ties a configuration failure to the key or file that caused it.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

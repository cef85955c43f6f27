package auth

import "errors"

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("no API key found")

	// ErrInvalidKey is returned for keys that are not configured.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrKeyDisabled is returned for configured keys that are switched off.
	ErrKeyDisabled = errors.New("API key disabled")
)

// Key is an operator key as configured.
type Key struct {
	Name    string
	Secret  string
	Enabled bool
}

// Operator identifies whoever presented a valid key.
type Operator struct {
	Name string
}

// KeyStore validates presented API keys.
type KeyStore interface {
	Validate(key string) (*Operator, error)
}

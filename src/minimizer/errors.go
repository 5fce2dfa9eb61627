package minimizer

import (
	"errors"
	"fmt"

	"github.com/will-rowe/minimizer/src/kmer"
)

// ErrConfiguration is matched (via errors.Is) by every ConfigurationError
var ErrConfiguration = errors.New("invalid minimizer configuration")

// ErrInvalidSymbol is matched (via errors.Is) by every InvalidSymbolError
var ErrInvalidSymbol = kmer.ErrInvalidSymbol

// ConfigurationError is returned by New and Config.Validate, no iterator is built when it occurs
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("minimizer: bad %s: %s", e.Option, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// InvalidSymbolError is returned by Iterator.Next when a byte outside the alphabet is read
type InvalidSymbolError struct {
	Symbol   byte
	Position int
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("minimizer: invalid symbol %q at position %d", e.Symbol, e.Position)
}

// Unwrap lets errors.Is match ErrInvalidSymbol
func (e *InvalidSymbolError) Unwrap() error {
	return ErrInvalidSymbol
}

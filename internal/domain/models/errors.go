package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrDataUnavailable = errors.New("market data unavailable")
	ErrThrottled       = errors.New("provider throttled")

	ErrProviderUnavailable = errors.New("market data provider unavailable")
)

// ValidationError reports one offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every offending field of one input.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Field)
	}
	return out
}

// DataUnavailableError means no usable history exists for Symbol.
type DataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no market data for %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("no market data for %s", e.Symbol)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

// ProviderUnavailableError means every market data provider failed for
// Symbol (throttling, open circuit, network or upstream errors). Unlike
// DataUnavailableError, a retry may succeed.
type ProviderUnavailableError struct {
	Symbol string
	Err    error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("market data provider unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

func (e *ProviderUnavailableError) Is(target error) bool { return target == ErrProviderUnavailable }

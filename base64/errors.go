package base64

import (
	"errors"
	"fmt"
)

var (
	ErrBufferTooSmall  = errors.New("base64: output buffer too small")
	ErrInvalidEncoding = errors.New("base64: invalid encoding")
	ErrConfiguration   = errors.New("base64: invalid codec configuration")
)

// BufferTooSmallError reports the capacity an operation needed.
type BufferTooSmallError struct {
	Required  int
	Available int
}

func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("%v: need %d bytes, have %d", ErrBufferTooSmall, e.Required, e.Available)
}

func (e *BufferTooSmallError) Unwrap() error { return ErrBufferTooSmall }

// InvalidEncodingError reports malformed Base64 text at a byte offset.
type InvalidEncodingError struct {
	Offset int
	Reason string
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrInvalidEncoding, e.Offset, e.Reason)
}

func (e *InvalidEncodingError) Unwrap() error { return ErrInvalidEncoding }

// ConfigurationError reports a symbol choice that would make the alphabet ambiguous.
type ConfigurationError struct {
	Symbol byte
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Symbol == 0 {
		return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%v: %q: %s", ErrConfiguration, e.Symbol, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

package bbq10

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol indicates a reply whose length does not match the
	// register map. Usually a firmware/driver version mismatch.
	ErrProtocol = errors.New("reply width mismatch")
	// ErrInvalidWidth indicates a caller-supplied payload of the wrong
	// width for the target register. No bus transaction is issued.
	ErrInvalidWidth = errors.New("invalid payload width")
	// ErrNotReadable indicates a read of a write-only or unknown register.
	ErrNotReadable = errors.New("register not readable")
	// ErrNotWritable indicates a write to a read-only or unknown register.
	ErrNotWritable = errors.New("register not writable")
)

// BusError wraps a transport failure with the operation that hit it.
// Failures are never retried here; retry policy belongs to the host.
type BusError struct {
	Op  string
	Reg Register
	Err error
}

// Error implements error.
func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s reg 0x%02X: %v", e.Op, uint8(e.Reg), e.Err)
}

// Unwrap returns the underlying transport error.
func (e *BusError) Unwrap() error {
	return e.Err
}

package acquire

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDevice is returned by Open when no port is available to open.
	ErrNoDevice = errors.New("no serial device available")
	// ErrInvalidSelection is returned when a port index is out of range.
	ErrInvalidSelection = errors.New("invalid port selection")
	// ErrAlreadyReading is returned by Open while a session is active.
	ErrAlreadyReading = errors.New("already reading")
)

// ReadError is a hard transport failure that ended a reading session.
type ReadError struct {
	Port string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Port, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

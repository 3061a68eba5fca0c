package transport

import "errors"

var (
	// ErrHandleUnavailable is returned when the bus device could not be opened.
	ErrHandleUnavailable = errors.New("transport: bus handle unavailable")
	// ErrHandleClosed is returned by register operations issued before a
	// successful SelectDevice or after Close.
	ErrHandleClosed = errors.New("transport: bus handle closed")
	// ErrSelectRejected is returned when the bus refuses the device address.
	ErrSelectRejected = errors.New("transport: device address rejected")
	// ErrShortRead is returned when a block transfer moves an unexpected
	// number of bytes.
	ErrShortRead = errors.New("transport: short block read")
	ErrWriteRejected = errors.New("transport: write rejected")
	ErrReadRejected  = errors.New("transport: read rejected")
)

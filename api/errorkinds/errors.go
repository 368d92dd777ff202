package errorkinds

import "errors"

// The different general error types.
var (
	ErrSessionStart    = errors.New("cannot start session")
	ErrSessionStop     = errors.New("cannot stop session")
	ErrSessionNotExist = errors.New("session does not exist")

	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceNotBrowsable = errors.New("device does not support browsing")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrItemNotFound       = errors.New("item not found")

	ErrObexConnect     = errors.New("obex session cannot be connected")
	ErrObexBusy        = errors.New("an obex request is already in flight")
	ErrObexNotReady    = errors.New("obex session is not connected")
	ErrObexInterrupted = errors.New("obex session was interrupted")

	ErrDescriptorResolve = errors.New("no image descriptor could be resolved")
	ErrMalformedPixel    = errors.New("malformed pixel specification")

	ErrCommandStale = errors.New("queued command is stale for the current scope")
	ErrNotSupported = errors.New("this functionality is not supported")

	ErrMethodTimeout = errors.New("timed out while waiting for a reply")
)

// GenericError represents a standard error message.
type GenericError struct {
	// Errors stores all associated errors.
	Errors error `json:"errors,omitempty"`
}

// Error returns the formatted error as string.
func (e GenericError) Error() string {
	return e.Errors.Error()
}

// Unwrap unwraps all errors associated with this error.
func (e GenericError) Unwrap() error {
	return e.Errors
}

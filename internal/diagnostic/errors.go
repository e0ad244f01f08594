package diagnostic

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that indicate a compiler defect rather than
// a problem in the user's model.
var (
	ErrCircularTypeReference       = errors.New("circular type reference")
	ErrCircularRedirectionChain    = errors.New("circular redirection chain")
	ErrMissingArtifactForReference = errors.New("missing artifact for reference")
)

// InternalError is a fatal error of a pass. It is never reported through a
// Sink.
type InternalError struct {
	Err      error
	Location string
	Detail   string
}

// NewInternalError creates an InternalError for err at loc.
func NewInternalError(err error, loc string, format string, args ...any) *InternalError {
	return &InternalError{Err: err, Location: loc, Detail: fmt.Sprintf(format, args...)}
}

func (e *InternalError) Error() string {
	msg := "internal error: " + e.Err.Error()
	if e.Location != "" {
		msg += " at " + e.Location
	}

	if e.Detail != "" {
		msg += ": " + e.Detail
	}

	return msg
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsInternal reports whether err is or wraps an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// IsCircular reports whether err signals a type or redirection cycle.
func IsCircular(err error) bool {
	return errors.Is(err, ErrCircularTypeReference) || errors.Is(err, ErrCircularRedirectionChain)
}

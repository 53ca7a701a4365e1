package geolocation

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unsupported         Kind = "unsupported"
	PermissionDenied    Kind = "permission_denied"
	PositionUnavailable Kind = "position_unavailable"
	Timeout             Kind = "timeout"
)

// Error is a classified location failure. It is reported to the user and
// never retried automatically.
type Error struct {
	Kind Kind
	Err  error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "geolocation: " + string(e.Kind)
	}
	return fmt.Sprintf("geolocation: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Guidance returns a short instruction the user can act on.
func (e *Error) Guidance() string {
	switch e.Kind {
	case Unsupported:
		return "This device or browser cannot report its location. Try another device."
	case PermissionDenied:
		return "Location access was denied. Allow location access in your settings and try again."
	case PositionUnavailable:
		return "Your position could not be determined. Move to an open area and try again."
	case Timeout:
		return "Getting your position took too long. Check your GPS signal and try again."
	default:
		return "Location could not be acquired."
	}
}

// AsError unwraps err into a classified location error.
func AsError(err error) (*Error, bool) {
	var locErr *Error
	if errors.As(err, &locErr) {
		return locErr, true
	}
	return nil, false
}

// KindFromCode maps W3C GeolocationPositionError codes reported by devices.
func KindFromCode(code int) Kind {
	switch code {
	case 1:
		return PermissionDenied
	case 2:
		return PositionUnavailable
	case 3:
		return Timeout
	default:
		return Unsupported
	}
}

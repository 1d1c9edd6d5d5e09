package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure into the categories the rest of the client reacts to.
type Kind string

const (
	// KindUnauthorized means the service answered 401: the credential is missing or expired.
	KindUnauthorized Kind = "unauthorized"
	// KindRejected means the service answered with a non-success status other than 401. The
	// status and body are preserved verbatim.
	KindRejected Kind = "rejected"
	// KindUnavailable means the request never produced a response (transport failure).
	KindUnavailable Kind = "unavailable"
)

// Error is the uniform failure shape every gateway operation returns. Transport failures wrap the
// underlying error; HTTP failures carry the status code and the raw response body.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Body   string

	err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return fmt.Sprintf("%s: service unavailable: %v", e.Op, e.err)
	case KindUnauthorized:
		return fmt.Sprintf("%s: unauthorized", e.Op)
	default:
		return fmt.Sprintf("%s: service rejected request: status %d: %s", e.Op, e.Status, e.Body)
	}
}

func (e *Error) Unwrap() error { return e.err }

func kindIs(err error, kind Kind) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}

// IsUnauthorized reports whether err is a gateway 401.
func IsUnauthorized(err error) bool { return kindIs(err, KindUnauthorized) }

// IsRejected reports whether err is a non-success response from the service.
func IsRejected(err error) bool { return kindIs(err, KindRejected) }

// IsUnavailable reports whether err is a transport-level failure.
func IsUnavailable(err error) bool { return kindIs(err, KindUnavailable) }

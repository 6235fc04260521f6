// Package fault carries the error taxonomy shared by all services. Controllers
// switch on the kind to pick an HTTP status; the reason gives callers a
// machine-readable cause (e.g. "already_returned").
package fault

import "errors"

type Kind string

const (
	NotFound        Kind = "NOT_FOUND"
	InvalidArgument Kind = "INVALID_ARGUMENT"
	Conflict        Kind = "CONFLICT"
	Internal        Kind = "INTERNAL"
)

type coded struct {
	kind   Kind
	reason string
}

func (e coded) Error() string {
	if e.reason == "" {
		return string(e.kind)
	}
	return string(e.kind) + ": " + e.reason
}
func (e coded) Kind() Kind     { return e.kind }
func (e coded) Reason() string { return e.reason }

func New(k Kind, reason string) error { return coded{kind: k, reason: reason} }

// KindOf extracts the error kind; unknown errors map to Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce interface{ Kind() Kind }
	if errors.As(err, &ce) {
		return ce.Kind()
	}
	return Internal
}

// ReasonOf extracts the machine-readable reason, if any.
func ReasonOf(err error) string {
	var ce interface{ Reason() string }
	if errors.As(err, &ce) {
		return ce.Reason()
	}
	return ""
}

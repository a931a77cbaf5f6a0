// Package trackerr names the abstract error kinds used across the tracker
// core so that HTTP and UDP handlers can map any failure to the right
// wire-level response without re-deriving what went wrong.
package trackerr

import "errors"

// Kind identifies one of the abstract error categories from the tracker
// error-handling design. A Kind is never shown to a client directly; it
// drives which response shape (TrackerError, UDP error frame, startup
// abort) a caller picks.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformedBencode
	KindInvalidFrame
	KindUnknownTorrent
	KindPeerUnknown
	KindInvalidEvent
	KindInvalidInterval
	KindUnsupportedAddressFamily
)

func (k Kind) String() string {
	switch k {
	case KindMalformedBencode:
		return "MalformedBencode"
	case KindInvalidFrame:
		return "InvalidFrame"
	case KindUnknownTorrent:
		return "UnknownTorrent"
	case KindPeerUnknown:
		return "PeerUnknown"
	case KindInvalidEvent:
		return "InvalidEvent"
	case KindInvalidInterval:
		return "InvalidInterval"
	case KindUnsupportedAddressFamily:
		return "UnsupportedAddressFamily"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with the Kind that classifies it.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given Kind with a human-readable reason. The
// reason is safe to surface to a client as a tracker "failure reason".
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap attaches a Kind to an existing error, preserving it for errors.Is/As.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

package registration

import "errors"

// Domain errors surfaced to the HTTP layer. Handlers map these to status
// codes with errors.Is; none of them is retryable except
// ErrTemporarilyUnavailable.
var (
	ErrEventNotFound          = errors.New("event not found")
	ErrEventNotOpen           = errors.New("event is not open for registration")
	ErrAlreadyRegistered      = errors.New("user already registered for this event")
	ErrCapacityExceeded       = errors.New("event capacity exceeded")
	ErrNotFound               = errors.New("registration not found")
	ErrForbidden              = errors.New("actor may not modify this registration")
	ErrTemporarilyUnavailable = errors.New("store temporarily unavailable")
)

package appointments

import (
	"errors"
	"fmt"
)

// ErrSlotUnavailable reports the one expected, recoverable booking failure:
// the requested slot was taken between display and submit. It is returned
// whether the pre-check or the storage exclusion constraint caught the race,
// so callers have a single contract for "re-fetch slots and pick again".
var ErrSlotUnavailable = errors.New("appointments: slot no longer available")

// ErrNotFound reports a missing appointment.
var ErrNotFound = errors.New("appointments: not found")

// ErrForbidden reports an action the caller's role may never perform,
// regardless of appointment state.
var ErrForbidden = errors.New("appointments: action not permitted for role")

// ErrAlreadyRated reports a second rating attempt on the same appointment.
var ErrAlreadyRated = errors.New("appointments: already rated")

// ValidationError reports malformed input with a field-level reason. It is
// always raised before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("appointments: %s: %s", e.Field, e.Reason)
}

// IllegalTransitionError reports an action attempted outside its legal source
// state, e.g. completing an appointment that was never accepted.
type IllegalTransitionError struct {
	Action Action
	From   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("appointments: cannot %s an appointment in state %q", e.Action, e.From)
}

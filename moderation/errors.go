package moderation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller errors. State is never mutated.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks lookups of absent infractions or rules.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a duplicate active-sanction row created outside the
	// renewal path. The store-level uniqueness constraint makes this a logic
	// bug rather than an expected condition.
	ErrConflict = errors.New("conflicting active sanction")
)

// EnforcementError wraps a failed Enforcement Gateway call. Any partial local
// mutation has been rolled back by the time this is returned.
type EnforcementError struct {
	Action string
	Err    error
}

func (e *EnforcementError) Error() string {
	return fmt.Sprintf("enforcement action %s failed: %v", e.Action, e.Err)
}

func (e *EnforcementError) Unwrap() error {
	return e.Err
}

func enforcementFailed(action string, err error) error {
	return &EnforcementError{Action: action, Err: err}
}

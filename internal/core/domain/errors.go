package domain

import (
	"errors"
	"fmt"
)

type LifecycleErrorKind int

const (
	LifecycleStopped LifecycleErrorKind = iota
	LifecycleNotStarted
)

func (k LifecycleErrorKind) String() string {
	switch k {
	case LifecycleStopped:
		return "stopped"
	case LifecycleNotStarted:
		return "not_started"
	default:
		return "unknown"
	}
}

// LifecycleError is returned by the coordinator when an operation is not
// valid in its current lifecycle state.
type LifecycleError struct {
	Kind LifecycleErrorKind
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("coordinator %s", e.Kind)
}

func AsLifecycleError(err error) (*LifecycleError, bool) {
	var le *LifecycleError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

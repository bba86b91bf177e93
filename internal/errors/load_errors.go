package errors

import (
	stderrors "errors"
	"fmt"
)

// LoadClass classifies where a warehouse write failed
type LoadClass string

const (
	LoadClassConnectivity LoadClass = "connectivity"
	LoadClassSchema       LoadClass = "schema"
	LoadClassWrite        LoadClass = "write"
	LoadClassCommit       LoadClass = "commit"
)

// LoadOutcome describes the state the destination was left in
type LoadOutcome string

const (
	// OutcomeNotStarted means nothing was sent to the destination
	OutcomeNotStarted LoadOutcome = "not_started"
	// OutcomeRolledBack means statements ran but the transaction was rolled back
	OutcomeRolledBack LoadOutcome = "rolled_back"
	// OutcomeUnknown means the commit itself failed and the final state is unknown
	OutcomeUnknown LoadOutcome = "unknown"
)

// LoadError is returned by the warehouse loader
type LoadError struct {
	Class       LoadClass
	Outcome     LoadOutcome
	Destination string
	Mode        string
	Cause       error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("[%s] %s load of %s failed (%s, %s): %v",
		ErrTypeLoad, e.Mode, e.Destination, e.Class, e.Outcome, e.Cause)
}

// Unwrap returns the underlying driver error
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NewLoadError creates a classified load error
func NewLoadError(class LoadClass, outcome LoadOutcome, destination, mode string, cause error) *LoadError {
	return &LoadError{
		Class:       class,
		Outcome:     outcome,
		Destination: destination,
		Mode:        mode,
		Cause:       cause,
	}
}

// AsLoadError extracts a LoadError from err's chain
func AsLoadError(err error) (*LoadError, bool) {
	var loadErr *LoadError
	if stderrors.As(err, &loadErr) {
		return loadErr, true
	}
	return nil, false
}

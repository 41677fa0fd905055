package domain

import "fmt"

// ValidationError reports malformed caller input. A request that fails
// validation is rejected before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an operation attempted in a state that does not
// allow it, such as chatting before any symptom has been reported.
type InvalidStateError struct {
	Op   string
	Hint string
}

func (e *InvalidStateError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s not allowed in the current state", e.Op)
	}
	return fmt.Sprintf("%s not allowed in the current state: %s", e.Op, e.Hint)
}

// ExternalServiceError wraps a failure of the model service or another
// remote collaborator. Callers choose between surfacing it and substituting
// a fallback payload.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// StorageError wraps a persistence failure. Writes are atomic, so a storage
// error never leaves a partial record behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

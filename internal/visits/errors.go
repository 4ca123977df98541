package visits

// ValidationError reports missing or invalid input (no GPS fix, unconfirmed
// out-of-range check-in). The caller re-prompts for the specific input and
// retries manually.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ConflictError reports an invariant violation, e.g. a second check-in while
// a visit is already active. Surfaced informationally, never retried.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// NotFoundError reports a reference to a branch or visit that does not exist.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

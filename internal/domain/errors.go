package domain

// ValidationError reports malformed caller input (bad postcode, short
// polyline). It is always raised before any network work starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

package problem

// ValidationError reports an invalid problem parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid problem: " + e.Field + " " + e.Reason
}

// Is makes errors.Is(err, &ValidationError{}) match any validation error.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

package types

import "fmt"

// ValidationError reports which field of a public contract was violated
// and why. The REST layer renders it as a 400 with both parts intact.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

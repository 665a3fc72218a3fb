package scan

import "fmt"

// ValidationError reports a missing required submission field. The message
// format is part of the public API surface ("<field> is required", with the
// request's camelCase field name).
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// PaymentError reports a missing or rejected payment token.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return e.Reason
}

// ProviderError reports an analysis provider failure. The scan record has
// already been transitioned to failed by the time this is returned.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "analysis provider failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

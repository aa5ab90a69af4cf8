package carrier

import "fmt"

// ValidationError indicates bad caller input (pincode format, weight bounds).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError indicates the credential exchange with ShipRocket failed.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("shiprocket authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError indicates ShipRocket returned a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shiprocket API returned status %d: %s", e.Status, e.Body)
}

// TimeoutError indicates a carrier call exceeded its deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("shiprocket %s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

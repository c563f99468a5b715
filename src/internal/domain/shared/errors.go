package shared

import (
	"errors"
	"fmt"
)

// ===========================
// DomainError
// ===========================

// ErrorCode is a stable, machine-readable error identifier. Transport layers
// map codes to status codes; messages are for humans only.
type ErrorCode string

// DomainError is the structured error type shared by every bounded context.
//
//   - Code identifies the failure and drives errors.Is matching
//   - Context carries key/value details for logs
//   - values are never mutated after creation; WithContext returns a copy
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
}

// NewDomainError declares a sentinel error.
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Error implements error.
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %+v)", e.Code, e.Message, e.Context)
}

// WithContext returns a copy of e with extra key/value pairs attached.
func (e *DomainError) WithContext(keyValues ...interface{}) error {
	if len(keyValues)%2 != 0 {
		panic("WithContext requires even number of arguments (key-value pairs)")
	}

	ctx := make(map[string]interface{}, len(e.Context)+len(keyValues)/2)
	for k, v := range e.Context {
		ctx[k] = v
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("context key must be string, got %T", keyValues[i]))
		}
		ctx[key] = keyValues[i+1]
	}

	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Context: ctx,
	}
}

// Is matches any *DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the code of the first DomainError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

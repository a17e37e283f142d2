package sigdecode

import (
	"encoding/json"
	"fmt"
)

// Error codes
const (
	ErrCodePlayerJSNotFound  = "PLAYER_JS_NOT_FOUND"
	ErrCodePlayerJSDownload  = "PLAYER_JS_DOWNLOAD_FAILED"
	ErrCodePlayerUnsupported = "PLAYER_UNSUPPORTED"
	ErrCodeSigFuncNotFound   = "SIGFUNC_NOT_FOUND"
	ErrCodeSigFuncFailed     = "SIGFUNC_FAILED"
	ErrCodeJSExecutionFailed = "JS_EXECUTION_FAILED"
)

// Error represents a structured error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// IsNotFound returns true if the error reports a missing player or function
func IsNotFound(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodePlayerJSNotFound || e.Code == ErrCodeSigFuncNotFound
	}
	return false
}

// IsUnsupported returns true if the error reports an unsupported player type
func IsUnsupported(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodePlayerUnsupported
	}
	return false
}

// IsJSError returns true if the error is a JavaScript execution error
func IsJSError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodeJSExecutionFailed || e.Code == ErrCodeSigFuncFailed
	}
	return false
}

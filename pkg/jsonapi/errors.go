package jsonapi

import (
	"fmt"
)

// ErrorObject is a single JSON:API error object as returned by the API.
type ErrorObject struct {
	Status string       `json:"status,omitempty"`
	Code   string       `json:"code,omitempty"`
	Title  string       `json:"title,omitempty"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
}

// ErrorSource points at the request part an error object refers to.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// String renders the error object for log and error messages.
func (e ErrorObject) String() string {
	switch {
	case e.Title != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	case e.Title != "":
		return e.Title
	case e.Detail != "":
		return e.Detail
	default:
		return e.Code
	}
}

// MalformedResponseError reports a response body that does not form a valid
// JSON:API document, or a resource whose type does not match what the caller
// requested. Payload holds the raw body for diagnostics.
type MalformedResponseError struct {
	Reason  string
	Payload []byte
	Err     error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed API response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed API response: %s", e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

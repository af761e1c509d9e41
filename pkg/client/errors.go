package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bmkit/battlemetrics-client/pkg/jsonapi"
)

// ErrorClass labels error categories for metrics and logging.
type ErrorClass string

const (
	ErrorClassValidation ErrorClass = "validation"
	ErrorClassAuth       ErrorClass = "auth"
	ErrorClassNotFound   ErrorClass = "not_found"
	ErrorClassRateLimit  ErrorClass = "rate_limit"
	ErrorClassServer     ErrorClass = "server"
	ErrorClassNetwork    ErrorClass = "network"
	ErrorClassMalformed  ErrorClass = "malformed"
)

// classifyStatus maps an HTTP status code to its error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusBadRequest:
		return ErrorClassValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorClassAuth
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassValidation
	}
}

// APIError is the base type for errors the API reports with a status code.
// Errors holds the decoded error objects from the response body, when the
// body carried any.
type APIError struct {
	StatusCode int
	Status     string
	Errors     []jsonapi.ErrorObject
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = strconv.Itoa(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		return fmt.Sprintf("api error %s: %s", status, e.Errors[0].String())
	}
	return fmt.Sprintf("api error %s", status)
}

func (e *APIError) apiStatusCode() int { return e.StatusCode }

// StatusCode returns the HTTP status code carried by err when it is (or
// wraps) an API error, and 0 for transport or parse failures that never
// produced a status.
func StatusCode(err error) int {
	var coded interface{ apiStatusCode() int }
	if errors.As(err, &coded) {
		return coded.apiStatusCode()
	}
	return 0
}

// ValidationError reports a 400: the request was malformed or carried
// invalid parameters.
type ValidationError struct {
	APIError
}

// AuthError reports a 401 or 403: the token is missing, invalid, or lacks
// the required scope.
type AuthError struct {
	APIError
}

// NotFoundError reports a 404: the resource does not exist or is private.
type NotFoundError struct {
	APIError
}

// ServerError reports a 5xx. These are not retried; whether and when to
// retry is the caller's decision.
type ServerError struct {
	APIError
}

// RateLimitError reports a 429 that persisted after the single automatic
// retry. RetryAfter is the delay the server last advertised.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %s)", e.APIError.Error(), e.RetryAfter)
}

// NetworkError reports a transport-level failure: connection refused, DNS
// failure, timeout, or a canceled context. No response was received, or it
// could not be read.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// mapStatusError converts an error response into its typed error. Statuses
// without a dedicated type surface as a plain *APIError.
func mapStatusError(statusCode int, status string, payload []byte) error {
	apiErr := APIError{
		StatusCode: statusCode,
		Status:     status,
		Errors:     parseErrorObjects(payload),
	}

	switch {
	case statusCode == http.StatusBadRequest:
		return &ValidationError{apiErr}
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return &AuthError{apiErr}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{apiErr}
	case statusCode >= 500:
		return &ServerError{apiErr}
	default:
		return &apiErr
	}
}

func newRateLimitError(status string, payload []byte, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		APIError: APIError{
			StatusCode: http.StatusTooManyRequests,
			Status:     status,
			Errors:     parseErrorObjects(payload),
		},
		RetryAfter: retryAfter,
	}
}

// parseErrorObjects extracts JSON:API error objects from an error response
// body. Bodies that are not valid JSON:API yield no objects; the status
// code alone still determines the error type.
func parseErrorObjects(payload []byte) []jsonapi.ErrorObject {
	if len(payload) == 0 {
		return nil
	}
	var envelope struct {
		Errors []jsonapi.ErrorObject `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil
	}
	return envelope.Errors
}

// DefaultRetryAfter is the delay assumed when a 429 carries no usable
// Retry-After header.
const DefaultRetryAfter = 1 * time.Second

// parseRetryAfter reads the Retry-After header, accepting both delay
// seconds (integer or fractional) and HTTP dates.
func parseRetryAfter(headers http.Header) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return DefaultRetryAfter
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return DefaultRetryAfter
		}
		return time.Duration(seconds * float64(time.Second))
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return DefaultRetryAfter
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

func makeHTTPError(code int) error {
	return fmt.Errorf("HTTP status = %d", code)
}

// Common error codes for HTTP responses
var (
	ErrorBadRequest          = makeHTTPError(http.StatusBadRequest)
	ErrorUnauthorized        = makeHTTPError(http.StatusUnauthorized)
	ErrorForbidden           = makeHTTPError(http.StatusForbidden)
	ErrorNotFound            = makeHTTPError(http.StatusNotFound)
	ErrorTooManyRequests     = makeHTTPError(http.StatusTooManyRequests)
	ErrorInternalServerError = makeHTTPError(http.StatusInternalServerError)

	// ErrUnsuccessful marks a 2xx response whose body reports success:false.
	ErrUnsuccessful = errors.New("API returned error response")
)

// APIError carries the message the server put in the body's error field.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func statusError(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrorBadRequest
	case http.StatusUnauthorized:
		return ErrorUnauthorized
	case http.StatusForbidden:
		return ErrorForbidden
	case http.StatusNotFound:
		return ErrorNotFound
	case http.StatusTooManyRequests:
		return ErrorTooManyRequests
	case http.StatusInternalServerError:
		return ErrorInternalServerError
	default:
		return makeHTTPError(code)
	}
}

// bodyErrorMessage pulls a human readable message out of an error body. Both
// the activity API ({"error": "..."}) and OAuth servers
// ({"error_description": "..."}, {"msg": "..."}) are understood.
func bodyErrorMessage(body []byte) string {
	var parsed struct {
		Error            interface{} `json:"error"`
		ErrorDescription string      `json:"error_description"`
		Message          string      `json:"message"`
		Msg              string      `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	switch {
	case parsed.ErrorDescription != "":
		return parsed.ErrorDescription
	case parsed.Msg != "":
		return parsed.Msg
	}
	if s, ok := parsed.Error.(string); ok && s != "" {
		return s
	}
	return parsed.Message
}

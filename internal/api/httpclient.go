package api

import (
	"net/http"
	"time"

	resty "github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

// ConvertNon2xxToError turns non 2xx responses into an *APIError wrapping the
// matching status sentinel.
func ConvertNon2xxToError(c *resty.Client, r *resty.Response) error {
	if r.StatusCode() < 300 {
		return nil
	}

	err := &APIError{
		StatusCode: r.StatusCode(),
		Message:    bodyErrorMessage(r.Body()),
		Err:        statusError(r.StatusCode()),
	}
	log.WithFields(log.Fields{
		"method": r.Request.Method,
		"url":    r.Request.URL,
		"status": r.StatusCode(),
	}).Debug("request failed")
	return err
}

// LogResponse logs every completed request at debug level.
func LogResponse(c *resty.Client, r *resty.Response) error {
	log.WithFields(log.Fields{
		"method":   r.Request.Method,
		"url":      r.Request.URL,
		"status":   r.StatusCode(),
		"duration": r.Time(),
	}).Debug("request complete")
	return nil
}

// NewHTTPClient builds the resty client shared by the activity API, the
// identity provider and Strava. Requests are never retried; timeouts come from
// the underlying http.Client.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	http := &http.Client{Timeout: timeout}
	return resty.
		NewWithClient(http).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		OnAfterResponse(LogResponse).
		OnAfterResponse(ConvertNon2xxToError)
}

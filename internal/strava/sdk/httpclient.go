package sdk

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	resty "github.com/go-resty/resty/v2"
	"github.com/nmiodice/riders-activity/internal/api"
	log "github.com/sirupsen/logrus"
)

const (
	rateLimitHeader      = "X-Ratelimit-Limit"
	rateLimitUsageHeader = "X-Ratelimit-Usage"
)

// determine whether or not to retry a request
func retryConditionFunc(r *resty.Response, err error) bool {
	if errors.Is(err, api.ErrorInternalServerError) {
		log.WithError(err).WithField("status", r.Status()).Warn("strava request failed, will retry")
		return true
	}
	return false
}

// fail request in rate limit exceeded condition
func makeAPILimitRequestMiddleware(store *rateLimitStore) resty.RequestMiddleware {
	return func(c *resty.Client, r *resty.Request) error {
		limitedUntil := store.GetLimittedUntilTime(r.Context())
		if time.Now().UTC().Before(limitedUntil) {
			log.WithField("until", limitedUntil).Warn("holding back strava request, rate limit exceeded")
			return &api.APIError{
				StatusCode: http.StatusTooManyRequests,
				Message:    "strava rate limit exceeded until " + limitedUntil.Format(time.RFC3339),
				Err:        api.ErrorTooManyRequests,
			}
		}
		return nil
	}
}

type rateLimit struct {
	fifteenMinute int
	daily         int
}

// parse header containing rate limit information
func parseRateLimitHeader(r *resty.Response, headerName string) *rateLimit {
	h := r.Header().Get(headerName)
	parts := strings.Split(h, ",")
	if len(parts) != 2 {
		return nil
	}

	fifteenMinute, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil
	}
	daily, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil
	}

	return &rateLimit{fifteenMinute, daily}
}

func getDelayTime(bucket time.Duration) time.Time {
	return time.Now().UTC().Truncate(bucket).Add(bucket)
}

// persist consumed rate limit
func makeAPILimitResponseMiddleware(store *rateLimitStore) resty.ResponseMiddleware {
	return func(c *resty.Client, r *resty.Response) error {
		limits := parseRateLimitHeader(r, rateLimitHeader)
		used := parseRateLimitHeader(r, rateLimitUsageHeader)
		if limits == nil || used == nil {
			return nil
		}

		var limitUntil time.Time
		if used.daily >= limits.daily {
			limitUntil = getDelayTime(time.Hour * 24)
		} else if used.fifteenMinute >= limits.fifteenMinute {
			limitUntil = getDelayTime(time.Minute * 15)
		}

		if err := store.UpdateLimittedUntilTime(r.Request.Context(), limitUntil); err != nil {
			log.WithError(err).Warn("updating strava rate limit")
		}

		return nil
	}
}

// The rate limit response middleware runs before the status conversion so
// that 429 responses still record their usage headers.
func newHTTPClient(timeout time.Duration, store *rateLimitStore) *resty.Client {
	http := &http.Client{Timeout: timeout}
	return resty.
		NewWithClient(http).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(retryConditionFunc).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(makeAPILimitRequestMiddleware(store)).
		OnAfterResponse(makeAPILimitResponseMiddleware(store)).
		OnAfterResponse(api.LogResponse).
		OnAfterResponse(api.ConvertNon2xxToError)
}

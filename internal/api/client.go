package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	resty "github.com/go-resty/resty/v2"
	"github.com/nmiodice/riders-activity/internal/activity"
)

const (
	listActivitiesPath = "/api/user/activity/get-all"
	addActivityPath    = "/api/user/activity/add"
)

// Client talks to the riders activity API.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(httpClient *resty.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type ListQuery struct {
	// UserIdentifier is either an email address or a krid.
	UserIdentifier string
	Filters        activity.Filters
}

// ServerFilters echoes the filters the server applied.
type ServerFilters struct {
	Email     *string `json:"email"`
	Krid      *string `json:"krid"`
	SportType *string `json:"sportType"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type ListResult struct {
	Activities []activity.Activity
	Pagination activity.Pagination
	Filters    ServerFilters
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type listData struct {
	Activities []json.RawMessage     `json:"activities"`
	Pagination *activity.Pagination `json:"pagination"`
	Filters    ServerFilters         `json:"filters"`
}

// IdentifierParam picks the query parameter a user identifier is sent as.
func IdentifierParam(userIdentifier string) string {
	if strings.Contains(userIdentifier, "@") {
		return "email"
	}
	return "krid"
}

func (q ListQuery) params() map[string]string {
	params := map[string]string{
		IdentifierParam(q.UserIdentifier): q.UserIdentifier,
	}
	if q.Filters.SportType != "" {
		params["sportType"] = q.Filters.SportType
	}
	if q.Filters.StartDate != "" {
		params["startDate"] = q.Filters.StartDate
	}
	if q.Filters.EndDate != "" {
		params["endDate"] = q.Filters.EndDate
	}
	if q.Filters.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Filters.Limit)
	}
	if q.Filters.Offset > 0 {
		params["offset"] = strconv.Itoa(q.Filters.Offset)
	}
	return params
}

// ListActivities fetches one page of a user's activities.
func (c *Client) ListActivities(ctx context.Context, token string, q ListQuery) (*ListResult, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParams(q.params()).
		Get(c.baseURL + listActivitiesPath)
	if err != nil {
		return nil, err
	}

	data, err := UnwrapEnvelope(res)
	if err != nil {
		return nil, err
	}

	var page listData
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("%w: data: %v", activity.ErrMalformed, err)
	}
	if page.Activities == nil {
		return nil, fmt.Errorf("%w: missing data.activities", activity.ErrMalformed)
	}
	if page.Pagination == nil {
		return nil, fmt.Errorf("%w: missing data.pagination", activity.ErrMalformed)
	}
	if err := page.Pagination.Validate(); err != nil {
		return nil, err
	}

	activities, err := activity.DecodeActivities(page.Activities)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Activities: activities,
		Pagination: *page.Pagination,
		Filters:    page.Filters,
	}, nil
}

// UserRef is the denormalized user identity sent alongside a new activity.
type UserRef struct {
	Krid            string `json:"krid"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	StravaAthleteID *int64 `json:"stravaAthleteId"`
}

type AddRequest struct {
	Activity activity.Activity `json:"activity"`
	User     UserRef           `json:"user"`
}

// AddActivity submits a new activity. The returned data is whatever the
// server echoed back, possibly empty.
func (c *Client) AddActivity(ctx context.Context, token string, req AddRequest) (json.RawMessage, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.baseURL + addActivityPath)
	if err != nil {
		return nil, err
	}
	return UnwrapEnvelope(res)
}

// UnwrapEnvelope returns the data of a {success, data, error} response body.
// success:false becomes an *APIError carrying the body's error message.
func UnwrapEnvelope(res *resty.Response) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(res.Body(), &env); err != nil {
		return nil, fmt.Errorf("%w: response body: %v", activity.ErrMalformed, err)
	}
	if env.Success == nil {
		return nil, fmt.Errorf("%w: missing success flag", activity.ErrMalformed)
	}
	if !*env.Success {
		return nil, &APIError{
			StatusCode: res.StatusCode(),
			Message:    env.Error,
			Err:        ErrUnsuccessful,
		}
	}
	return env.Data, nil
}

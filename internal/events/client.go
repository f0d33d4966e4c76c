package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	resty "github.com/go-resty/resty/v2"
	"github.com/nmiodice/riders-activity/internal/api"
	"github.com/nmiodice/riders-activity/internal/auth"
	log "github.com/sirupsen/logrus"
)

const (
	eventsPath     = "/api/events"
	eventPath      = "/api/events/{id}"
	joinPath       = "/api/events/{id}/join"
	leavePath      = "/api/events/{id}/leave"
	userEventsPath = "/api/users/{krid}/events"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrMalformed     = errors.New("malformed events response")
)

// TokenSource supplies bearer tokens for the signed in user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the riders events API. Listing and reading events works
// without a session; everything else requires one.
type Client struct {
	http    *resty.Client
	baseURL string
	tokens  TokenSource
}

func NewClient(httpClient *resty.Client, baseURL string, tokens TokenSource) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
	}
}

// List returns the events matching filters. Without a session only public
// events are returned.
func (c *Client) List(ctx context.Context, filters Filters) ([]Event, error) {
	res, err := c.optionalAuth(ctx).
		SetQueryParams(filters.params()).
		Get(c.baseURL + eventsPath)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	var events []Event
	if err := decode(res, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Get returns one event, or ErrEventNotFound.
func (c *Client) Get(ctx context.Context, id string) (*Event, error) {
	res, err := c.optionalAuth(ctx).
		SetPathParam("id", id).
		Get(c.baseURL + eventPath)
	if errors.Is(err, api.ErrorNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}

	event := &Event{}
	if err := decode(res, event); err != nil {
		return nil, err
	}
	if event.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return event, nil
}

// Create publishes a new event owned by the signed in user.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.baseURL + eventsPath)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	event := &Event{}
	if err := decode(res, event); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"event": event.ID, "title": event.Title}).Info("created event")
	return event, nil
}

// Update changes the set fields of an event. Only its creator may do so.
func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (*Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(req).
		Put(c.baseURL + eventPath)
	if err != nil {
		return nil, fmt.Errorf("updating event %s: %w", id, err)
	}

	event := &Event{}
	if err := decode(res, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an event. Only its creator may do so.
func (c *Client) Delete(ctx context.Context, id string) error {
	r, err := c.authorized(ctx)
	if err != nil {
		return err
	}

	res, err := r.SetPathParam("id", id).Delete(c.baseURL + eventPath)
	if err != nil {
		return fmt.Errorf("deleting event %s: %w", id, err)
	}
	_, err = api.UnwrapEnvelope(res)
	return err
}

// Join registers the signed in user. The server decides between registered
// and waitlist.
func (c *Client) Join(ctx context.Context, id string) (*Participant, error) {
	r, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.SetPathParam("id", id).Post(c.baseURL + joinPath)
	if err != nil {
		return nil, fmt.Errorf("joining event %s: %w", id, err)
	}

	var data struct {
		Participation *Participant `json:"participation"`
	}
	if err := decode(res, &data); err != nil {
		return nil, err
	}
	if data.Participation == nil {
		return nil, fmt.Errorf("%w: missing data.participation", ErrMalformed)
	}
	log.WithFields(log.Fields{"event": id, "status": data.Participation.Status}).Info("joined event")
	return data.Participation, nil
}

func (c *Client) Leave(ctx context.Context, id string) error {
	r, err := c.authorized(ctx)
	if err != nil {
		return err
	}

	res, err := r.SetPathParam("id", id).Post(c.baseURL + leavePath)
	if err != nil {
		return fmt.Errorf("leaving event %s: %w", id, err)
	}
	_, err = api.UnwrapEnvelope(res)
	return err
}

// CreatedBy lists the events a user organizes.
func (c *Client) CreatedBy(ctx context.Context, krid string) ([]Event, error) {
	return c.userEvents(ctx, krid, "created")
}

// JoinedBy lists the events a user registered for.
func (c *Client) JoinedBy(ctx context.Context, krid string) ([]Event, error) {
	return c.userEvents(ctx, krid, "joined")
}

func (c *Client) userEvents(ctx context.Context, krid, kind string) ([]Event, error) {
	r, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	res, err := r.SetPathParam("krid", krid).
		SetQueryParam("type", kind).
		Get(c.baseURL + userEventsPath)
	if err != nil {
		return nil, fmt.Errorf("listing %s events of %s: %w", kind, krid, err)
	}

	var data struct {
		Events []Event `json:"events"`
	}
	if err := decode(res, &data); err != nil {
		return nil, err
	}
	return data.Events, nil
}

func (c *Client) authorized(ctx context.Context) (*resty.Request, error) {
	if c.tokens == nil {
		return nil, auth.ErrNoSession
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token), nil
}

func (c *Client) optionalAuth(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.tokens == nil {
		return r
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		log.WithError(err).Debug("no session, requesting public events only")
		return r
	}
	return r.SetHeader("Authorization", "Bearer "+token)
}

func decode(res *resty.Response, v interface{}) error {
	data, err := api.UnwrapEnvelope(res)
	if err != nil {
		return err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}
	return nil
}

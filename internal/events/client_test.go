package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nmiodice/riders-activity/internal/api"
	"github.com/nmiodice/riders-activity/internal/auth"
)

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) Token(ctx context.Context) (string, error) {
	return f.token, f.err
}

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

type eventsServer struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (s *eventsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		method: r.Method,
		path:   r.URL.EscapedPath(),
		query:  r.URL.RawQuery,
		auth:   r.Header.Get("Authorization"),
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.body)
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
	s.handler(w, r)
}

func (s *eventsServer) last() recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestClient(t *testing.T, tokens TokenSource, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *eventsServer) {
	t.Helper()
	srv := &eventsServer{handler: handler}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return NewClient(api.NewHTTPClient(5*time.Second), ts.URL+"/", tokens), srv
}

func respond(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

const eventJSON = `{"id":"ev-1","title":"Sunday century","date":"2026-11-01T05:30:00Z","location":"Kochi","category":"cycling","difficulty":"advanced","distance":160,"isActive":true,"createdBy":"KR0042","createdAt":"2026-10-01T10:00:00Z","updatedAt":"2026-10-01T10:00:00Z","participantCount":12,"userParticipation":{"id":"p1","eventId":"ev-1","userKRId":"KR0042","status":"registered","registeredAt":"2026-10-02T10:00:00Z"}}`

func TestListSendsFiltersAndToken(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, respond(`{"success":true,"data":[`+eventJSON+`]}`))

	events, err := c.List(context.Background(), Filters{Category: CategoryCycling, DateFrom: "2026-11-01", Location: "Kochi"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Sunday century" || events[0].Registered() != 12 || !events[0].Joined() {
		t.Fatalf("unexpected events %+v", events)
	}
	if *events[0].Distance != 160 || !events[0].Date.Equal(time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected event fields %+v", events[0])
	}

	req := srv.last()
	if req.path != "/api/events" || req.auth != "Bearer tok" {
		t.Fatalf("unexpected request %+v", req)
	}
	for _, want := range []string{"category=cycling", "dateFrom=2026-11-01", "location=Kochi"} {
		if !strings.Contains(req.query, want) {
			t.Errorf("query %q missing %q", req.query, want)
		}
	}
	if strings.Contains(req.query, "difficulty") {
		t.Errorf("empty filters must not be sent: %q", req.query)
	}
}

func TestListWithoutSessionIsPublic(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{err: auth.ErrNoSession}, respond(`{"success":true,"data":[]}`))

	events, err := c.List(context.Background(), Filters{})
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty public list, got %v (%v)", events, err)
	}
	if srv.last().auth != "" {
		t.Fatalf("expected no Authorization header, got %q", srv.last().auth)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Event not found"}`))
	})

	_, err := c.Get(context.Background(), "ev 9")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if got := srv.last().path; got != "/api/events/ev%209" {
		t.Fatalf("expected escaped id in path, got %q", got)
	}
}

func TestCreateValidatesBeforeSending(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, respond(`{"success":true,"data":`+eventJSON+`}`))

	max := 0
	_, err := c.Create(context.Background(), CreateRequest{Category: "parkour", MaxParticipants: &max})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	for _, want := range []string{"title is required", "location is required", "date is required", "unknown category", "max participants"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
	if len(srv.requests) != 0 {
		t.Fatalf("expected no request for an invalid event")
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, respond(`{"success":true,"data":`+eventJSON+`}`))

	distance := 160.0
	event, err := c.Create(context.Background(), CreateRequest{
		Title:      "Sunday century",
		Date:       time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC),
		Location:   "Kochi",
		Category:   CategoryCycling,
		Difficulty: DifficultyAdvanced,
		Distance:   &distance,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.ID != "ev-1" {
		t.Fatalf("unexpected event %+v", event)
	}

	req := srv.last()
	if req.method != http.MethodPost || req.path != "/api/events" || req.auth != "Bearer tok" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.body["title"] != "Sunday century" || req.body["date"] != "2026-11-01T05:30:00Z" || req.body["distance"] != 160.0 {
		t.Fatalf("unexpected body %+v", req.body)
	}
	if _, ok := req.body["maxParticipants"]; ok {
		t.Fatalf("unset optional fields must be omitted: %+v", req.body)
	}
}

func TestWritesRequireSession(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{err: auth.ErrSessionExpired}, respond(`{"success":true}`))

	if _, err := c.Join(context.Background(), "ev-1"); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("join: expected ErrSessionExpired, got %v", err)
	}
	if err := c.Delete(context.Background(), "ev-1"); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("delete: expected ErrSessionExpired, got %v", err)
	}
	if _, err := NewClient(api.NewHTTPClient(time.Second), "http://unused", nil).JoinedBy(context.Background(), "KR0042"); !errors.Is(err, auth.ErrNoSession) {
		t.Fatalf("expected ErrNoSession without a token source, got %v", err)
	}
	if len(srv.requests) != 0 {
		t.Fatalf("expected no requests without a session")
	}
}

func TestJoinAndLeave(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/join") {
			_, _ = w.Write([]byte(`{"success":true,"data":{"participation":{"id":"p2","eventId":"ev-1","userKRId":"KR0042","status":"waitlist","registeredAt":"2026-10-05T08:00:00Z"}}}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"You are not registered for this event"}`))
	})

	p, err := c.Join(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Status != StatusWaitlist || p.UserKrid != "KR0042" {
		t.Fatalf("unexpected participation %+v", p)
	}
	if req := srv.last(); req.method != http.MethodPost || req.path != "/api/events/ev-1/join" {
		t.Fatalf("unexpected request %+v", req)
	}

	err = c.Leave(context.Background(), "ev-1")
	if !errors.Is(err, api.ErrorBadRequest) || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected server message, got %v", err)
	}
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, respond(`{"success":true,"data":`+eventJSON+`}`))

	if _, err := c.Update(context.Background(), "ev-1", UpdateRequest{}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected empty update to be rejected, got %v", err)
	}

	location := "Alappuzha"
	if _, err := c.Update(context.Background(), "ev-1", UpdateRequest{Location: &location}); err != nil {
		t.Fatalf("update: %v", err)
	}
	req := srv.last()
	if req.method != http.MethodPut || req.path != "/api/events/ev-1" {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.body) != 1 || req.body["location"] != "Alappuzha" {
		t.Fatalf("expected only location in body, got %+v", req.body)
	}
}

func TestDeleteSurfacesServerError(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, fakeTokens{token: "tok"}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"error":"Only the creator can delete this event"}`))
	})

	err := c.Delete(context.Background(), "ev-1")
	if !errors.Is(err, api.ErrorForbidden) || !strings.Contains(err.Error(), "Only the creator") {
		t.Fatalf("expected forbidden with server message, got %v", err)
	}
}

func TestUserEvents(t *testing.T) {
	t.Parallel()
	c, srv := newTestClient(t, fakeTokens{token: "tok"}, respond(`{"success":true,"data":{"events":[`+eventJSON+`]}}`))

	created, err := c.CreatedBy(context.Background(), "KR0042")
	if err != nil || len(created) != 1 {
		t.Fatalf("created: %v (%v)", created, err)
	}
	if req := srv.last(); req.path != "/api/users/KR0042/events" || req.query != "type=created" {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, err := c.JoinedBy(context.Background(), "KR0042"); err != nil {
		t.Fatalf("joined: %v", err)
	}
	if req := srv.last(); req.query != "type=joined" {
		t.Fatalf("unexpected query %q", req.query)
	}
}

func TestRegisteredCountsParticipants(t *testing.T) {
	t.Parallel()
	e := Event{Participants: []Participant{
		{Status: StatusRegistered},
		{Status: StatusWaitlist},
		{Status: StatusRegistered},
		{Status: StatusCancelled},
	}}
	if got := e.Registered(); got != 2 {
		t.Fatalf("expected 2 registered, got %d", got)
	}
	e.UserParticipation = &Participant{Status: StatusCancelled}
	if e.Joined() {
		t.Fatalf("a cancelled registration is not joined")
	}
}

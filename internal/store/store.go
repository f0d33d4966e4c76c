package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nmiodice/riders-activity/internal/activity"
	"github.com/nmiodice/riders-activity/internal/api"
	"github.com/nmiodice/riders-activity/internal/auth"
	"github.com/nmiodice/riders-activity/internal/storage"
	log "github.com/sirupsen/logrus"
)

// BlobName is the durable blob the store persists its state under.
const BlobName = "activity-storage"

const defaultPageLimit = 50

var (
	ErrAuthentication = errors.New("failed to get authentication token")
	ErrNoIdentity     = errors.New("no user identity available")
)

// ActivityAPI is the subset of api.Client the store calls.
type ActivityAPI interface {
	ListActivities(ctx context.Context, token string, q api.ListQuery) (*api.ListResult, error)
	AddActivity(ctx context.Context, token string, req api.AddRequest) (json.RawMessage, error)
}

// Authenticator supplies bearer tokens and the signed in user.
type Authenticator interface {
	Token(ctx context.Context) (string, error)
	Identity(ctx context.Context) (auth.User, error)
}

// AthleteIDProvider looks up the linked Strava athlete, if any.
type AthleteIDProvider interface {
	AthleteID(ctx context.Context) (int64, error)
}

// Observer is called with every new snapshot after the state changes.
type Observer func(Snapshot)

// Snapshot is an immutable copy of the store's state.
type Snapshot struct {
	Activities   []activity.Activity
	Loading      bool
	LoadingMore  bool
	Error        string
	LastSyncedAt *time.Time
	Pagination   *activity.Pagination
	Filters      *activity.Filters
}

type Options struct {
	Blob      storage.Blob
	API       ActivityAPI
	Auth      Authenticator
	Athletes  AthleteIDProvider
	Observer  Observer
	PageLimit int
	Now       func() time.Time
}

// Store holds the activity list, its pagination cursor and the remembered
// filters. All mutation goes through its methods.
type Store struct {
	mu sync.Mutex

	activities   []activity.Activity
	lastSyncedAt *time.Time
	pagination   *activity.Pagination
	filters      *activity.Filters

	inflight    int
	loadingMore bool
	lastError   string
	seq         uint64

	blob      storage.Blob
	api       ActivityAPI
	auth      Authenticator
	athletes  AthleteIDProvider
	observer  Observer
	pageLimit int
	now       func() time.Time
}

// Open builds a store and rehydrates the persisted state, if there is any.
// Transient flags always start cleared.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.API == nil || opts.Auth == nil {
		return nil, fmt.Errorf("store requires an activity API and an authenticator")
	}

	s := &Store{
		blob:      opts.Blob,
		api:       opts.API,
		auth:      opts.Auth,
		athletes:  opts.Athletes,
		observer:  opts.Observer,
		pageLimit: opts.PageLimit,
		now:       opts.Now,
	}
	if s.pageLimit <= 0 {
		s.pageLimit = defaultPageLimit
	}
	if s.now == nil {
		s.now = time.Now
	}

	if err := s.rehydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Fetch loads one page of activities for userID. With replace the page
// becomes the whole list, otherwise it is appended. Failures are recorded in
// the snapshot's Error and returned; the previous list is left untouched.
// When a newer Fetch was started before this one completes, its result is
// discarded.
func (s *Store) Fetch(ctx context.Context, userID string, filters *activity.Filters, replace bool) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.inflight++
	s.notifyLocked()
	s.mu.Unlock()

	logger := log.WithFields(log.Fields{
		"user":    userID,
		"replace": replace,
		"seq":     seq,
	})

	token, err := s.auth.Token(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrAuthentication, err)
		s.finish(seq, err, logger)
		return err
	}

	query := api.ListQuery{UserIdentifier: userID}
	if filters != nil {
		query.Filters = *filters
	}

	res, err := s.api.ListActivities(ctx, token, query)
	if err != nil {
		s.finish(seq, err, logger)
		return err
	}

	s.apply(ctx, seq, res, filters, replace, logger)
	s.finish(seq, nil, logger)
	return nil
}

func (s *Store) apply(ctx context.Context, seq uint64, res *api.ListResult, filters *activity.Filters, replace bool, logger *log.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		logger.Debug("discarding stale activity page")
		return
	}

	if replace {
		s.activities = append([]activity.Activity(nil), res.Activities...)
	} else {
		s.activities = append(s.activities, res.Activities...)
	}
	pagination := res.Pagination
	s.pagination = &pagination
	s.filters = copyFilters(filters)
	synced := s.now().UTC()
	s.lastSyncedAt = &synced

	logger.WithFields(log.Fields{
		"received": len(res.Activities),
		"total":    pagination.Total,
		"offset":   pagination.Offset,
		"hasMore":  pagination.HasMore,
	}).Info("fetched activities")

	s.persistLocked(ctx)
}

// LoadMore appends the next page using the remembered filters. It does
// nothing when a load-more is already running or there are no more pages.
func (s *Store) LoadMore(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.loadingMore || s.pagination == nil || !s.pagination.HasMore {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true

	next := activity.Filters{}
	if s.filters != nil {
		next = *s.filters
	}
	limit := next.Limit
	if limit <= 0 {
		limit = s.pageLimit
	}
	next.Offset += limit
	s.notifyLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loadingMore = false
		s.notifyLocked()
		s.mu.Unlock()
	}()

	return s.Fetch(ctx, userID, &next, false)
}

// Refresh reloads the first page, replacing the list.
func (s *Store) Refresh(ctx context.Context, userID string, filters *activity.Filters) error {
	first := activity.Filters{}
	if filters != nil {
		first = *filters
	}
	first.Offset = 0
	return s.Fetch(ctx, userID, &first, true)
}

// Create submits a new activity on behalf of the signed in user. The list is
// not updated locally; callers refresh afterwards.
func (s *Store) Create(ctx context.Context, a activity.Activity) error {
	s.mu.Lock()
	s.inflight++
	s.notifyLocked()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.notifyLocked()
		s.mu.Unlock()
	}()

	token, err := s.auth.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	user, err := s.auth.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if user.Metadata.Krid == "" {
		return ErrNoIdentity
	}

	req := api.AddRequest{
		Activity: a,
		User: api.UserRef{
			Krid:            user.Metadata.Krid,
			Email:           user.Email,
			Name:            user.Metadata.FullName,
			StravaAthleteID: s.athleteID(ctx, user),
		},
	}

	if _, err := s.api.AddActivity(ctx, token, req); err != nil {
		log.WithError(err).WithField("activity", a.Name).Warn("creating activity")
		return err
	}
	log.WithField("activity", a.Name).Info("created activity")
	return nil
}

// ClearActivities forgets the loaded list, its pagination cursor and when it
// was last synced. Remembered filters are kept.
func (s *Store) ClearActivities(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = nil
	s.pagination = nil
	s.lastSyncedAt = nil
	s.persistLocked(ctx)
	s.notifyLocked()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = ""
	s.notifyLocked()
}

// SetFilters replaces the remembered filters without fetching.
func (s *Store) SetFilters(ctx context.Context, filters activity.Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = &filters
	s.persistLocked(ctx)
	s.notifyLocked()
}

func (s *Store) athleteID(ctx context.Context, user auth.User) *int64 {
	if user.Metadata.StravaAthleteID != nil {
		id := *user.Metadata.StravaAthleteID
		return &id
	}
	if s.athletes == nil {
		return nil
	}
	id, err := s.athletes.AthleteID(ctx)
	if err != nil {
		log.WithError(err).Debug("no linked strava athlete")
		return nil
	}
	return &id
}

// finish ends the fetch started with seq. Errors from stale fetches are
// dropped along with their results.
func (s *Store) finish(seq uint64, err error, logger *log.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	if err != nil {
		if seq == s.seq {
			s.lastError = err.Error()
			logger.WithError(err).Warn("fetching activities")
		} else {
			logger.WithError(err).Debug("discarding stale fetch error")
		}
	}
	s.notifyLocked()
}

func (s *Store) snapshot() Snapshot {
	snap := Snapshot{
		Activities:  append([]activity.Activity(nil), s.activities...),
		Loading:     s.inflight > 0,
		LoadingMore: s.loadingMore,
		Error:       s.lastError,
		Filters:     copyFilters(s.filters),
	}
	if s.lastSyncedAt != nil {
		t := *s.lastSyncedAt
		snap.LastSyncedAt = &t
	}
	if s.pagination != nil {
		p := *s.pagination
		snap.Pagination = &p
	}
	return snap
}

// notifyLocked hands the observer a snapshot. Observers must not call back
// into the store.
func (s *Store) notifyLocked() {
	if s.observer != nil {
		s.observer(s.snapshot())
	}
}

func copyFilters(f *activity.Filters) *activity.Filters {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nmiodice/riders-activity/internal/storage"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoSession      = errors.New("no auth session found")
	ErrSessionExpired = errors.New("access token has expired")
)

// IsUnauthenticated reports whether err means the caller has no usable
// session and must sign in again.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired)
}

// Refresher exchanges a refresh token for a new session.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

// Accessor hands out bearer tokens for the current session. It is the only
// writer of session state; the activity layer only reads tokens from it.
type Accessor struct {
	mu        sync.Mutex
	session   *Session
	blob      storage.Blob
	refresher Refresher
	skew      time.Duration
	now       func() time.Time
}

type AccessorOption func(*Accessor)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) AccessorOption {
	return func(a *Accessor) {
		a.now = now
	}
}

// WithRefreshSkew refreshes tokens this long before they actually expire.
func WithRefreshSkew(skew time.Duration) AccessorOption {
	return func(a *Accessor) {
		a.skew = skew
	}
}

func NewAccessor(blob storage.Blob, refresher Refresher, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		blob:      blob,
		refresher: refresher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetSession replaces the in-memory session and persists it.
func (a *Accessor) SetSession(ctx context.Context, s *Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = s
	return a.persist(ctx)
}

// SignOut forgets the session both in memory and on disk.
func (a *Accessor) SignOut(ctx context.Context) error {
	return a.SetSession(ctx, nil)
}

// Token returns a bearer token that has not expired. A session close to
// expiry is refreshed first; when refreshing fails the old token is still
// used until it actually expires.
func (a *Accessor) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, err := a.current(ctx)
	if err != nil {
		return "", err
	}

	now := a.now()
	if !session.ExpiredAt(now.Add(a.skew)) {
		return session.AccessToken, nil
	}

	if a.refresher != nil && session.RefreshToken != "" {
		refreshed, err := a.refresher.Refresh(ctx, session.RefreshToken)
		if err == nil && refreshed != nil && refreshed.AccessToken != "" {
			if refreshed.User.ID == "" {
				refreshed.User = session.User
			}
			a.session = refreshed
			if err := a.persist(ctx); err != nil {
				log.WithError(err).Warn("persisting refreshed session")
			}
			return refreshed.AccessToken, nil
		}
		if err == nil {
			err = errors.New("identity provider returned no access token")
		}
		log.WithError(err).Warn("refreshing session")
	}

	if session.ExpiredAt(now) {
		return "", ErrSessionExpired
	}
	return session.AccessToken, nil
}

// Identity returns the signed in user. It does not require the token to be
// valid.
func (a *Accessor) Identity(ctx context.Context) (User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, err := a.current(ctx)
	if err != nil {
		return User{}, err
	}
	return session.User, nil
}

// current returns the in-memory session, loading the persisted one when
// there is none yet. Callers hold a.mu.
func (a *Accessor) current(ctx context.Context) (*Session, error) {
	if a.session != nil && a.session.AccessToken != "" {
		return a.session, nil
	}
	if a.blob == nil {
		return nil, ErrNoSession
	}

	contents, err := a.blob.Get(ctx, SessionBlobName)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	session, err := decodeSessionBlob(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if session == nil || session.AccessToken == "" {
		return nil, ErrNoSession
	}

	a.session = session
	return session, nil
}

func (a *Accessor) persist(ctx context.Context) error {
	if a.blob == nil {
		return nil
	}
	contents, err := encodeSessionBlob(a.session)
	if err != nil {
		return err
	}
	return a.blob.Put(ctx, SessionBlobName, contents)
}

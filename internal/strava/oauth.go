package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nmiodice/riders-activity/internal/storage"
	"github.com/nmiodice/riders-activity/internal/strava/sdk"
	log "github.com/sirupsen/logrus"
)

// ConnectionBlobName is the durable blob the linked Strava account is kept in.
const ConnectionBlobName = "strava-connection"

var ErrNotConnected = errors.New("no strava account connected")

// Connection is a linked Strava account and its tokens.
type Connection struct {
	AthleteID    int64     `json:"athleteId"`
	Firstname    string    `json:"firstname"`
	Lastname     string    `json:"lastname"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    int64     `json:"expiresAt"`
	ConnectedAt  time.Time `json:"connectedAt"`
}

type AthleteToken struct {
	AccessToken string
	Athlete     int64
	Name        string
}

type connectionStore struct {
	blob storage.Blob
}

type OAuthService struct {
	mu    sync.Mutex
	sdk   sdk.StravaSDK
	store connectionStore
	now   func() time.Time
}

func NewOAuthService(stravaSDK sdk.StravaSDK, blob storage.Blob) *OAuthService {
	return &OAuthService{
		sdk:   stravaSDK,
		store: connectionStore{blob: blob},
		now:   time.Now,
	}
}

// ExchangeAuthToken trades an authorization code for tokens and links the
// athlete they belong to.
func (o *OAuthService) ExchangeAuthToken(ctx context.Context, request *sdk.TokenExchangeCode) (*AthleteToken, error) {
	if request == nil || request.Code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	authCodeResponse, err := o.sdk.ExchangeAuthToken(ctx, request)
	if err != nil {
		return nil, err
	}
	if authCodeResponse.Athlete.ID == 0 {
		return nil, fmt.Errorf("token exchange response has no athlete")
	}

	conn := &Connection{
		AthleteID:   authCodeResponse.Athlete.ID,
		Firstname:   authCodeResponse.Athlete.Firstname,
		Lastname:    authCodeResponse.Athlete.Lastname,
		ConnectedAt: o.now().UTC(),
	}
	conn.setTokens(authCodeResponse.Tokens())

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.store.persistConnection(ctx, conn); err != nil {
		return nil, err
	}

	log.WithField("athlete", conn.AthleteID).Info("connected strava account")
	return conn.athleteToken(), nil
}

// RefreshAuthToken trades the stored refresh token for a new access token.
func (o *OAuthService) RefreshAuthToken(ctx context.Context) (*AthleteToken, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	conn, err := o.store.getConnection(ctx)
	if err != nil {
		return nil, err
	}
	return o.refresh(ctx, conn)
}

// AccessToken returns a Strava access token, refreshing it when it expired.
func (o *OAuthService) AccessToken(ctx context.Context) (*AthleteToken, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	conn, err := o.store.getConnection(ctx)
	if err != nil {
		return nil, err
	}
	if conn.ExpiresAt > o.now().Unix() {
		return conn.athleteToken(), nil
	}
	return o.refresh(ctx, conn)
}

// AthleteID returns the linked athlete's id.
func (o *OAuthService) AthleteID(ctx context.Context) (int64, error) {
	conn, err := o.Connection(ctx)
	if err != nil {
		return 0, err
	}
	return conn.AthleteID, nil
}

func (o *OAuthService) Connection(ctx context.Context) (*Connection, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.getConnection(ctx)
}

// Athlete looks up the linked athlete's profile on Strava.
func (o *OAuthService) Athlete(ctx context.Context) (*sdk.Athlete, error) {
	token, err := o.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return o.sdk.GetAthlete(ctx, token.AccessToken)
}

// refresh is called with o.mu held.
func (o *OAuthService) refresh(ctx context.Context, conn *Connection) (*AthleteToken, error) {
	newTokens, err := o.sdk.RefreshAuthToken(ctx, conn.RefreshToken)
	if err != nil {
		return nil, err
	}

	conn.setTokens(newTokens)
	if err := o.store.persistConnection(ctx, conn); err != nil {
		return nil, err
	}

	log.WithField("athlete", conn.AthleteID).Debug("refreshed strava token")
	return conn.athleteToken(), nil
}

func (c *Connection) setTokens(tokens *sdk.StravaTokens) {
	c.AccessToken = tokens.AccessToken
	c.ExpiresAt = tokens.ExpiresAt
	if tokens.RefreshToken != "" {
		c.RefreshToken = tokens.RefreshToken
	}
}

func (c *Connection) athleteToken() *AthleteToken {
	return &AthleteToken{
		AccessToken: c.AccessToken,
		Athlete:     c.AthleteID,
		Name:        c.Firstname + " " + c.Lastname,
	}
}

func (d connectionStore) persistConnection(ctx context.Context, conn *Connection) error {
	contents, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	if err := d.blob.Put(ctx, ConnectionBlobName, contents); err != nil {
		return fmt.Errorf("persisting strava connection: %w", err)
	}
	return nil
}

func (d connectionStore) getConnection(ctx context.Context) (*Connection, error) {
	contents, err := d.blob.Get(ctx, ConnectionBlobName)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, fmt.Errorf("reading strava connection: %w", err)
	}

	conn := &Connection{}
	if err := json.Unmarshal(contents, conn); err != nil {
		return nil, fmt.Errorf("decoding strava connection: %w", err)
	}
	if conn.AthleteID == 0 {
		return nil, ErrNotConnected
	}
	return conn, nil
}

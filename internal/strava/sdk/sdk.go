package sdk

import (
	"context"
	"time"

	"github.com/nmiodice/riders-activity/internal/storage"
)

// StravaSDK wraps API calls to Strava
type StravaSDK interface {
	// authentication APIs
	ExchangeAuthToken(ctx context.Context, request *TokenExchangeCode) (*AuthorizationCodeResponse, error)
	RefreshAuthToken(ctx context.Context, refreshToken string) (*StravaTokens, error)

	// athlete APIs
	GetAthlete(ctx context.Context, token string) (*Athlete, error)
}

type StravaSDKConfig struct {
	Timeout      time.Duration
	ClientID     string
	ClientSecret string

	// APIRootURL overrides the Strava API root, e.g. in tests.
	APIRootURL string

	// RateLimits remembers when Strava asked us to back off. Optional.
	RateLimits storage.Blob
}

// NewStravaSDK create a new SDK
func NewStravaSDK(config StravaSDKConfig) StravaSDK {
	root := config.APIRootURL
	if root == "" {
		root = apiRootURL
	}
	return sdkImpl{
		client:       newHTTPClient(config.Timeout, &rateLimitStore{blob: config.RateLimits}),
		clientID:     config.ClientID,
		clientSecret: config.ClientSecret,
		rootURL:      root,
	}
}

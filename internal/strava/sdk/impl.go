package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	resty "github.com/go-resty/resty/v2"
)

type sdkImpl struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	rootURL      string
}

// according to https://developers.strava.com/docs/
const apiRootURL = "https://www.strava.com/api/v3/"

func (sdk sdkImpl) ExchangeAuthToken(ctx context.Context, request *TokenExchangeCode) (*AuthorizationCodeResponse, error) {
	res, err := sdk.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     sdk.clientID,
			"client_secret": sdk.clientSecret,
			"grant_type":    "authorization_code",
			"code":          request.Code,
		}).
		Post(sdk.rootURL + "oauth/token")

	if err != nil {
		return nil, err
	}

	authCodeResponse := &AuthorizationCodeResponse{}
	if err := json.Unmarshal(res.Body(), authCodeResponse); err != nil {
		return nil, fmt.Errorf("decoding token exchange response: %w", err)
	}
	return authCodeResponse, nil
}

func (sdk sdkImpl) RefreshAuthToken(ctx context.Context, refreshToken string) (*StravaTokens, error) {
	res, err := sdk.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     sdk.clientID,
			"client_secret": sdk.clientSecret,
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		Post(sdk.rootURL + "oauth/token")

	if err != nil {
		return nil, err
	}

	tokens := &StravaTokens{}
	if err := json.Unmarshal(res.Body(), tokens); err != nil {
		return nil, fmt.Errorf("decoding token refresh response: %w", err)
	}
	return tokens, nil
}

// GetAthlete returns the athlete the token belongs to
func (sdk sdkImpl) GetAthlete(ctx context.Context, token string) (*Athlete, error) {
	res, err := sdk.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		Get(sdk.rootURL + "athlete")

	if err != nil {
		return nil, err
	}

	athlete := &Athlete{}
	if err := json.Unmarshal(res.Body(), athlete); err != nil {
		return nil, fmt.Errorf("decoding athlete: %w", err)
	}
	return athlete, nil
}

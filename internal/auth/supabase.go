package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	resty "github.com/go-resty/resty/v2"
)

const tokenPath = "/auth/v1/token"

// SupabaseAuth signs in and refreshes sessions against a Supabase GoTrue
// endpoint.
type SupabaseAuth struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	now        func() time.Time
}

func NewSupabaseAuth(httpClient *resty.Client, baseURL, apiKey string) *SupabaseAuth {
	return &SupabaseAuth{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		now:        time.Now,
	}
}

// Refresh trades a refresh token for a new session.
func (s *SupabaseAuth) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	session, err := s.grant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}
	return session, nil
}

// SignInWithPassword starts a new session from email and password.
func (s *SupabaseAuth) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	session, err := s.grant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("signing in as %s: %w", email, err)
	}
	return session, nil
}

func (s *SupabaseAuth) grant(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	res, err := s.httpClient.R().
		SetContext(ctx).
		SetHeader("apikey", s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		Post(s.baseURL + tokenPath)
	if err != nil {
		return nil, err
	}

	session := &Session{}
	if err := json.Unmarshal(res.Body(), session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("session has no access token")
	}
	if session.ExpiresAt == 0 && session.ExpiresIn > 0 {
		session.ExpiresAt = s.now().Add(time.Duration(session.ExpiresIn) * time.Second).Unix()
	}
	return session, nil
}

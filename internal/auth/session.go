package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionBlobName is the durable blob the session is persisted under.
const SessionBlobName = "auth-storage"

type UserMetadata struct {
	Krid            string `json:"krid,omitempty"`
	FullName        string `json:"full_name,omitempty"`
	StravaAthleteID *int64 `json:"strava_athlete_id,omitempty"`
}

type User struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

// Identifier is the key the activity API looks the user up by: the krid when
// known, the email otherwise.
func (u User) Identifier() string {
	if u.Metadata.Krid != "" {
		return u.Metadata.Krid
	}
	return u.Email
}

// Session is the identity provider's bearer credential.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         User   `json:"user"`
}

// Expiry returns when the access token stops being valid. Sessions without
// expires_at fall back to the JWT exp claim; ok is false when neither exists.
func (s Session) Expiry() (expiry time.Time, ok bool) {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0), true
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiredAt reports whether the token is expired at t.
func (s Session) ExpiredAt(t time.Time) bool {
	expiry, ok := s.Expiry()
	return ok && !t.Before(expiry)
}

type persistedSession struct {
	State struct {
		Session *Session `json:"session"`
	} `json:"state"`
	Version int `json:"version"`
}

func decodeSessionBlob(contents []byte) (*Session, error) {
	var p persistedSession
	if err := json.Unmarshal(contents, &p); err != nil {
		return nil, fmt.Errorf("decoding persisted session: %w", err)
	}
	return p.State.Session, nil
}

func encodeSessionBlob(s *Session) ([]byte, error) {
	var p persistedSession
	p.State.Session = s
	return json.Marshal(p)
}

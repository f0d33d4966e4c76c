package sdk

import "time"

type Athlete struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Sex           string    `json:"sex"`
	Premium       bool      `json:"premium"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ProfileMedium string    `json:"profile_medium"`
	Profile       string    `json:"profile"`
}

type AuthorizationCodeResponse struct {
	TokenType    string  `json:"token_type"`
	ExpiresAt    int64   `json:"expires_at"`
	ExpiresIn    int     `json:"expires_in"`
	RefreshToken string  `json:"refresh_token"`
	AccessToken  string  `json:"access_token"`
	Athlete      Athlete `json:"athlete"`
}

func (acr AuthorizationCodeResponse) Tokens() *StravaTokens {
	return &StravaTokens{
		AccessToken:  acr.AccessToken,
		ExpiresAt:    acr.ExpiresAt,
		RefreshToken: acr.RefreshToken,
	}
}

type StravaTokens struct {
	AccessToken  string `json:"access_token"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
}

type TokenExchangeCode struct {
	Code string
}

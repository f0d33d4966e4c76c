package strava

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/nmiodice/riders-activity/internal/strava/sdk"
)

const (
	QueryParamCode  = "code"
	QueryParamError = "error"

	ResponseError   = "error"
	ResponseAthlete = "athlete"
	ResponseName    = "name"

	TokenExchangePath = "/tokenexchange"

	authorizeURL = "https://www.strava.com/oauth/authorize"
)

// Scopes requested when connecting an account.
const Scopes = "read,activity:read_all,profile:read_all"

// TokenExchanger is implemented by OAuthService.
type TokenExchanger interface {
	ExchangeAuthToken(ctx context.Context, request *sdk.TokenExchangeCode) (*AthleteToken, error)
}

// AuthorizeURL is where the user is sent to grant access. Strava redirects
// back to redirectURI with a code.
func AuthorizeURL(clientID, redirectURI string) string {
	params := url.Values{}
	params.Add("client_id", clientID)
	params.Add("redirect_uri", redirectURI)
	params.Add("response_type", "code")
	params.Add("approval_prompt", "auto")
	params.Add("scope", Scopes)
	return authorizeURL + "?" + params.Encode()
}

// TokenExchangeRoute handles Strava's OAuth redirect. done, when set, is
// called once per request with the outcome.
func TokenExchangeRoute(exchanger TokenExchanger, done func(*AthleteToken, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reason := c.Query(QueryParamError); reason != "" {
			err := &AuthorizationError{Reason: reason}
			notify(done, nil, err)
			c.JSON(http.StatusBadRequest, gin.H{
				ResponseError: err.Error(),
			})
			return
		}

		res, err := exchanger.ExchangeAuthToken(c.Request.Context(), &sdk.TokenExchangeCode{
			Code: c.Query(QueryParamCode),
		})
		notify(done, res, err)

		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				ResponseError: err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			ResponseAthlete: res.Athlete,
			ResponseName:    res.Name,
		})
	}
}

// NewCallbackRouter serves TokenExchangeRoute on TokenExchangePath.
func NewCallbackRouter(exchanger TokenExchanger, done func(*AthleteToken, error)) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(TokenExchangePath, TokenExchangeRoute(exchanger, done))
	return router
}

// AuthorizationError is returned when the user declines access on Strava.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "strava authorization failed: " + e.Reason
}

func notify(done func(*AthleteToken, error), res *AthleteToken, err error) {
	if done != nil {
		done(res, err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nmiodice/riders-activity/internal/client"
	"github.com/nmiodice/riders-activity/internal/strava"
	"github.com/spf13/cobra"
)

var stravaCmd = &cobra.Command{
	Use:   "strava",
	Short: "Link a Strava account",
}

type exchangeResult struct {
	token *strava.AthleteToken
	err   error
}

var stravaConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authorize riders on Strava and store the tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Strava.ClientID == "" || config.Strava.ClientSecret == "" {
			return errors.New("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET must be set")
		}

		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			addr := fmt.Sprintf("localhost:%d", config.Strava.CallbackPort)
			redirect := "http://" + addr + strava.TokenExchangePath

			results := make(chan exchangeResult, 1)
			gin.SetMode(gin.ReleaseMode)
			router := strava.NewCallbackRouter(deps.Strava, func(token *strava.AthleteToken, err error) {
				select {
				case results <- exchangeResult{token, err}:
				default:
				}
			})

			srv := &http.Server{Addr: addr, Handler: router}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					results <- exchangeResult{err: err}
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			fmt.Fprintln(cmd.OutOrStdout(), "Open this URL in a browser to connect Strava:")
			fmt.Fprintln(cmd.OutOrStdout(), strava.AuthorizeURL(config.Strava.ClientID, redirect))

			select {
			case res := <-results:
				if res.err != nil {
					return res.err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "connected strava athlete %d (%s)\n", res.token.Athlete, res.token.Name)
				return nil
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		})
	},
}

var stravaRemote bool

var stravaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the linked Strava account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			conn, err := deps.Strava.Connection(cmd.Context())
			if errors.Is(err, strava.ErrNotConnected) {
				warnColor.Fprintln(cmd.OutOrStdout(), "no strava account connected, run 'riders strava connect'")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "athlete %d (%s %s), connected %s\n",
				conn.AthleteID, conn.Firstname, conn.Lastname, conn.ConnectedAt.Local().Format("2006-01-02"))
			if !stravaRemote {
				return nil
			}

			athlete, err := deps.Strava.Athlete(cmd.Context())
			if err != nil {
				return fmt.Errorf("checking connection with strava: %w", err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "strava reports %s %s from %s\n", athlete.Firstname, athlete.Lastname, athlete.City)
			return nil
		})
	},
}

func init() {
	stravaStatusCmd.Flags().BoolVar(&stravaRemote, "remote", false, "Also verify the tokens against Strava")
	stravaCmd.AddCommand(stravaConnectCmd, stravaStatusCmd)
}

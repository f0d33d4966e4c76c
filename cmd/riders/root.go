package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nmiodice/riders-activity/internal/api"
	"github.com/nmiodice/riders-activity/internal/auth"
	"github.com/nmiodice/riders-activity/internal/client"
	"github.com/spf13/cobra"
)

var (
	userFlag  string
	unitsFlag string

	config *client.Config
)

var rootCmd = &cobra.Command{
	Use:           "riders",
	Short:         "riders syncs and records your riding and running activities",
	Long:          "riders is a command line client for the riders activity API: list and page through activities, log new ones, import GPX tracks and link Strava.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch unitsFlag {
		case "metric", "imperial":
		default:
			return fmt.Errorf("invalid --units %q (expected metric or imperial)", unitsFlag)
		}

		var err error
		config, err = client.GetConfig(cmd.Context())
		if err != nil {
			return err
		}
		client.ConfigureLogging(config)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Email or krid to query (defaults to the signed in user)")
	rootCmd.PersistentFlags().StringVar(&unitsFlag, "units", "metric", "Display units: metric or imperial")

	rootCmd.AddCommand(activitiesCmd, eventsCmd, stravaCmd, loginCmd, logoutCmd)
}

func withDeps(ctx context.Context, run func(*client.Dependencies) error) error {
	deps, err := client.GetDependencies(ctx, config, nil)
	if err != nil {
		return err
	}
	defer deps.Close()
	return withLoginHint(run(deps))
}

// withLoginHint tells the user how to recover when err means the session is
// missing, expired or rejected by the server.
func withLoginHint(err error) error {
	if auth.IsUnauthenticated(err) || errors.Is(err, api.ErrorUnauthorized) {
		return fmt.Errorf("%w (run 'riders login' to sign in)", err)
	}
	return err
}

// userIdentifier is --user when given, otherwise the signed in user's krid or
// email.
func userIdentifier(ctx context.Context, deps *client.Dependencies) (string, error) {
	if id := strings.TrimSpace(userFlag); id != "" {
		return id, nil
	}
	user, err := deps.Auth.Identity(ctx)
	if err != nil {
		return "", err
	}
	id := user.Identifier()
	if id == "" {
		return "", fmt.Errorf("signed in user has neither a krid nor an email, pass --user")
	}
	return id, nil
}

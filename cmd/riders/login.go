package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/nmiodice/riders-activity/internal/auth"
	"github.com/nmiodice/riders-activity/internal/client"
	"github.com/spf13/cobra"
)

var (
	loginPassword      string
	loginPasswordStdin bool
	loginAccessToken   string
	loginRefreshToken  string
	loginExpiresAt     int64
	loginUserID        string
	loginEmail         string
	loginKrid          string
	loginName          string
	loginAthleteID     int64
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password, or store a session issued elsewhere",
	Example: `  riders login --email rider@example.com --password-stdin < password.txt
  riders login --access-token eyJhbGciOi... --refresh-token r1 --krid KR0042`,
	RunE: func(cmd *cobra.Command, args []string) error {
		usePassword := loginPassword != "" || loginPasswordStdin
		if !usePassword && loginAccessToken == "" {
			return errors.New("pass --email with --password or --password-stdin, or --access-token")
		}
		if usePassword && loginEmail == "" {
			return errors.New("--email is required to sign in with a password")
		}

		password := loginPassword
		if loginPasswordStdin {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			var session *auth.Session
			if usePassword {
				if deps.Identity == nil {
					return errors.New("SUPABASE_URL must be set to sign in with a password")
				}
				var err error
				session, err = deps.Identity.SignInWithPassword(cmd.Context(), loginEmail, password)
				if err != nil {
					return err
				}
			} else {
				session = pastedSession()
			}

			if err := deps.Auth.SetSession(cmd.Context(), session); err != nil {
				return err
			}
			if _, err := deps.Auth.Token(cmd.Context()); err != nil {
				return fmt.Errorf("stored session is not usable: %w", err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", session.User.Identifier())
			return nil
		})
	},
}

func pastedSession() *auth.Session {
	session := &auth.Session{
		AccessToken:  loginAccessToken,
		RefreshToken: loginRefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    loginExpiresAt,
		User: auth.User{
			ID:    loginUserID,
			Email: loginEmail,
			Metadata: auth.UserMetadata{
				Krid:     loginKrid,
				FullName: loginName,
			},
		},
	}
	if loginAthleteID > 0 {
		id := loginAthleteID
		session.User.Metadata.StravaAthleteID = &id
	}
	return session
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd.Context(), func(deps *client.Dependencies) error {
			if err := deps.Auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prefer --password-stdin)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().StringVar(&loginAccessToken, "access-token", "", "Access token (JWT) issued by the identity provider")
	loginCmd.Flags().StringVar(&loginRefreshToken, "refresh-token", "", "Refresh token")
	loginCmd.Flags().Int64Var(&loginExpiresAt, "expires-at", 0, "Expiry as unix seconds (default: the token's exp claim)")
	loginCmd.Flags().StringVar(&loginUserID, "user-id", "", "Identity provider user id")
	loginCmd.Flags().StringVar(&loginKrid, "krid", "", "Riders krid")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name")
	loginCmd.Flags().Int64Var(&loginAthleteID, "strava-athlete-id", 0, "Linked Strava athlete id")
}

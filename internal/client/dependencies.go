package client

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nmiodice/riders-activity/internal/api"
	"github.com/nmiodice/riders-activity/internal/auth"
	"github.com/nmiodice/riders-activity/internal/database"
	"github.com/nmiodice/riders-activity/internal/events"
	"github.com/nmiodice/riders-activity/internal/storage"
	"github.com/nmiodice/riders-activity/internal/store"
	"github.com/nmiodice/riders-activity/internal/strava"
	"github.com/nmiodice/riders-activity/internal/strava/sdk"
	log "github.com/sirupsen/logrus"
)

type Dependencies struct {
	Blob     storage.Blob
	Auth     *auth.Accessor
	Identity *auth.SupabaseAuth
	API      *api.Client
	Events   *events.Client
	Store    *store.Store
	Strava   *strava.OAuthService

	closers []func()
}

// GetDependencies wires the library together from config. observer may be nil.
func GetDependencies(ctx context.Context, config *Config, observer store.Observer) (*Dependencies, error) {
	deps := &Dependencies{}

	blob, err := deps.openBlob(ctx, config)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Blob = blob

	httpClient := api.NewHTTPClient(config.HttpClient.Timeout)

	var refresher auth.Refresher
	if config.Auth.SupabaseURL != "" {
		deps.Identity = auth.NewSupabaseAuth(httpClient, config.Auth.SupabaseURL, config.Auth.SupabaseAnonKey)
		refresher = deps.Identity
	} else {
		log.Debug("SUPABASE_URL not set, sessions will not be refreshed")
	}
	deps.Auth = auth.NewAccessor(blob, refresher, auth.WithRefreshSkew(config.Auth.RefreshSkew))

	stravaSDK := sdk.NewStravaSDK(sdk.StravaSDKConfig{
		Timeout:      config.HttpClient.Timeout,
		ClientID:     config.Strava.ClientID,
		ClientSecret: config.Strava.ClientSecret,
		RateLimits:   blob,
	})
	deps.Strava = strava.NewOAuthService(stravaSDK, blob)

	deps.API = api.NewClient(httpClient, config.API.BaseURL)
	deps.Events = events.NewClient(httpClient, config.API.BaseURL, deps.Auth)
	deps.Store, err = store.Open(ctx, store.Options{
		Blob:      blob,
		API:       deps.API,
		Auth:      deps.Auth,
		Athletes:  deps.Strava,
		Observer:  observer,
		PageLimit: config.API.PageLimit,
	})
	if err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func (d *Dependencies) openBlob(ctx context.Context, config *Config) (storage.Blob, error) {
	primary, err := d.openPrimaryBlob(ctx, config)
	if err != nil {
		return nil, err
	}
	if !config.Storage.Enabled() {
		return primary, nil
	}

	azure, err := storage.NewAzureBlobstore(
		ctx,
		config.Storage.ContainerName,
		config.Storage.AccountName,
		config.Storage.AccountKey,
		config.State.Owner)
	if err != nil {
		return nil, fmt.Errorf("creating azure mirror: %w", err)
	}
	return storage.NewMirror(primary, azure), nil
}

func (d *Dependencies) openPrimaryBlob(ctx context.Context, config *Config) (storage.Blob, error) {
	switch config.State.Backend {
	case StateBackendPostgres:
		db, err := database.NewDB(ctx, config.Database.ConnectionString())
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		return storage.NewPostgresBlob(ctx, db, config.State.Owner)

	case StateBackendSQLite:
		path := config.State.SQLitePath
		if path == "" {
			dir, err := config.StateDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "riders.db")
		}
		blob, err := storage.OpenSQLiteBlob(ctx, path)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() {
			if err := blob.Close(); err != nil {
				log.WithError(err).Warn("closing sqlite state")
			}
		})
		return blob, nil

	default:
		dir, err := config.StateDir()
		if err != nil {
			return nil, err
		}
		return storage.NewFileBlob(dir)
	}
}

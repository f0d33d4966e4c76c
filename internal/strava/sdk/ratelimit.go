package sdk

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nmiodice/riders-activity/internal/storage"
)

const rateLimitBlobName = "strava-ratelimit"

type rateLimitState struct {
	LimitedUntil time.Time `json:"limitedUntil"`
}

// rateLimitStore remembers the time until which Strava requests are held back.
type rateLimitStore struct {
	blob storage.Blob
}

func (rls rateLimitStore) UpdateLimittedUntilTime(ctx context.Context, limitUntil time.Time) error {
	if rls.blob == nil {
		return nil
	}
	contents, err := json.Marshal(rateLimitState{LimitedUntil: limitUntil})
	if err != nil {
		return err
	}
	return rls.blob.Put(ctx, rateLimitBlobName, contents)
}

func (rls rateLimitStore) GetLimittedUntilTime(ctx context.Context) time.Time {
	if rls.blob == nil {
		return time.Time{}
	}

	// a missing or unreadable blob means no limit has been recorded yet, the
	// zero time is suitable
	contents, err := rls.blob.Get(ctx, rateLimitBlobName)
	if err != nil {
		return time.Time{}
	}
	var state rateLimitState
	_ = json.Unmarshal(contents, &state)
	return state.LimitedUntil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nmiodice/riders-activity/internal/activity"
	"github.com/nmiodice/riders-activity/internal/storage"
	log "github.com/sirupsen/logrus"
)

// persistedState is the subset of the store that survives a restart.
// Loading and error flags are never written.
type persistedState struct {
	State struct {
		Activities   []activity.Activity  `json:"activities"`
		LastSyncedAt *time.Time           `json:"lastSyncedAt"`
		Pagination   *activity.Pagination `json:"pagination"`
		Filters      *activity.Filters    `json:"filters"`
	} `json:"state"`
	Version int `json:"version"`
}

// persistLocked writes the persisted subset as one blob. A failed write is
// logged; the in-memory state stays authoritative. Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	if s.blob == nil {
		return
	}

	var p persistedState
	p.State.Activities = s.activities
	if p.State.Activities == nil {
		p.State.Activities = []activity.Activity{}
	}
	p.State.LastSyncedAt = s.lastSyncedAt
	p.State.Pagination = s.pagination
	p.State.Filters = s.filters

	contents, err := json.Marshal(p)
	if err != nil {
		log.WithError(err).Error("encoding activity state")
		return
	}
	if err := s.blob.Put(ctx, BlobName, contents); err != nil {
		log.WithError(err).Warn("persisting activity state")
	}
}

func (s *Store) rehydrate(ctx context.Context) error {
	if s.blob == nil {
		return nil
	}

	contents, err := s.blob.Get(ctx, BlobName)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading activity state: %w", err)
	}

	var p persistedState
	if err := json.Unmarshal(contents, &p); err != nil {
		log.WithError(err).Warn("discarding unreadable activity state")
		return nil
	}

	s.activities = make([]activity.Activity, 0, len(p.State.Activities))
	for _, a := range p.State.Activities {
		s.activities = append(s.activities, a.Normalize())
	}
	s.lastSyncedAt = p.State.LastSyncedAt
	s.pagination = p.State.Pagination
	s.filters = p.State.Filters

	log.WithField("activities", len(s.activities)).Debug("rehydrated activity state")
	return nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/nmiodice/riders-activity/internal/concurrency"
	log "github.com/sirupsen/logrus"
)

// Mirror reads from the primary and writes to the primary plus every
// secondary concurrently. A write fails only when the primary fails; a
// secondary failure is logged and otherwise ignored.
type Mirror struct {
	primary     Blob
	secondaries []Blob
	sem         concurrency.Semaphore
}

func NewMirror(primary Blob, secondaries ...Blob) *Mirror {
	return &Mirror{
		primary:     primary,
		secondaries: secondaries,
		sem:         concurrency.NewSemaphore(len(secondaries) + 1),
	}
}

func (m *Mirror) Get(ctx context.Context, name string) ([]byte, error) {
	return m.primary.Get(ctx, name)
}

func (m *Mirror) Put(ctx context.Context, name string, contents []byte) error {
	var primaryErr error
	funcs := []func() error{
		func() error {
			primaryErr = m.primary.Put(ctx, name, contents)
			return primaryErr
		},
	}
	for idx, secondary := range m.secondaries {
		idx, secondary := idx, secondary
		funcs = append(funcs, func() error {
			if err := secondary.Put(ctx, name, contents); err != nil {
				return fmt.Errorf("mirror %d: %w", idx, err)
			}
			return nil
		})
	}

	if err := m.sem.RunAll(funcs, false); err != nil {
		if primaryErr != nil {
			return primaryErr
		}
		log.WithError(err).WithField("blob", name).Warn("mirroring blob failed")
	}
	return nil
}

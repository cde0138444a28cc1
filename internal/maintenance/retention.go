// Package maintenance runs periodic housekeeping jobs for the server.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRetentionSchedule runs the cleanup daily at 03:00 UTC.
const DefaultRetentionSchedule = "0 3 * * *"

// RetentionStore defines the interface for widget event cleanup.
type RetentionStore interface {
	DeleteWidgetEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeRecorder observes how many events each run deleted.
type PurgeRecorder interface {
	RecordPurged(n int64)
}

// RetentionScheduler periodically deletes widget events older than the
// retention window.
type RetentionScheduler struct {
	store         RetentionStore
	retentionDays int
	schedule      string
	cron          *cron.Cron
	recorder      PurgeRecorder
	now           func() time.Time
	logger        zerolog.Logger
	mu            sync.Mutex
	running       bool
}

// NewRetentionScheduler creates a new retention cleanup scheduler.
func NewRetentionScheduler(store RetentionStore, retentionDays int, logger zerolog.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		store:         store,
		retentionDays: retentionDays,
		schedule:      DefaultRetentionSchedule,
		cron:          cron.New(cron.WithLocation(time.UTC)),
		now:           time.Now,
		logger:        logger.With().Str("component", "retention").Logger(),
	}
}

// SetRecorder registers a recorder for purge counts.
func (s *RetentionScheduler) SetRecorder(r PurgeRecorder) {
	s.recorder = r
}

// Start registers the cleanup job and starts the cron runner.
func (s *RetentionScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("retention scheduler already running")
	}
	if s.retentionDays <= 0 {
		return fmt.Errorf("invalid retention days: %d", s.retentionDays)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runCleanup); err != nil {
		return fmt.Errorf("schedule retention cleanup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Int("retention_days", s.retentionDays).
		Str("schedule", s.schedule).
		Msg("retention scheduler started")

	return nil
}

// Stop stops the scheduler. The returned context is done once a running job
// has finished.
func (s *RetentionScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.running = false
	s.logger.Info().Msg("stopping retention scheduler")
	return s.cron.Stop()
}

// Cutoff returns the creation time before which events are deleted.
func (s *RetentionScheduler) Cutoff() time.Time {
	return s.now().UTC().AddDate(0, 0, -s.retentionDays)
}

func (s *RetentionScheduler) runCleanup() {
	if _, err := s.RunNow(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("widget event cleanup failed")
	}
}

// RunNow performs one cleanup immediately and returns the number of deleted events.
func (s *RetentionScheduler) RunNow(ctx context.Context) (int64, error) {
	cutoff := s.Cutoff()

	deleted, err := s.store.DeleteWidgetEventsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete widget events: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordPurged(deleted)
	}

	s.logger.Info().
		Int64("deleted_rows", deleted).
		Time("cutoff", cutoff).
		Msg("widget event cleanup completed")
	return deleted, nil
}

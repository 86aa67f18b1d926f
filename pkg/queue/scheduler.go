package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// Deliverer pushes one payload to the trusted host
type Deliverer interface {
	Deliver(payload *models.SyncPayload) error
}

// Config bounds the scheduler's retry behavior
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// withDefaults fills unset fields
func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	return c
}

// Scheduler drains the queue one entry at a time. Entries that fail return
// to pending with an incremented retry count; entries past the budget are
// parked as failed and never retried automatically.
type Scheduler struct {
	queue     *Queue
	deliverer Deliverer
	cfg       Config
	logger    *logrus.Entry
}

// NewScheduler creates a scheduler over the queue
func NewScheduler(q *Queue, d Deliverer, cfg Config, logger *logrus.Entry) *Scheduler {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Scheduler{
		queue:     q,
		deliverer: d,
		cfg:       cfg.withDefaults(),
		logger:    logger.WithField("component", "sync-scheduler"),
	}
}

// ProcessOnce attempts delivery of every currently pending entry, one at a
// time, and reports how many were delivered. It is synchronous so tests can
// drive the state machine without timers.
func (s *Scheduler) ProcessOnce() (delivered int, err error) {
	entries, err := s.queue.Items()
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if entry.Status != models.QueuePending {
			continue
		}

		// A pending entry can already be out of budget when the configured
		// maximum was lowered between runs. Park it without an attempt.
		if entry.RetryCount >= s.cfg.MaxRetries {
			s.logger.WithField("item", entry.ID).Warn("delivery failed permanently")
			if err := s.queue.markFailed(entry.ID, fmt.Errorf("retry budget exhausted after %d attempts", entry.RetryCount)); err != nil {
				return delivered, err
			}
			continue
		}

		item, ok, err := s.queue.markSyncing(entry.ID)
		if err != nil {
			return delivered, err
		}
		if !ok {
			continue
		}

		attemptErr := s.deliverer.Deliver(&item.Payload)
		if attemptErr == nil {
			if err := s.queue.markDone(item.ID); err != nil {
				return delivered, err
			}
			delivered++
			continue
		}

		// retryCount counts completed attempts; the budget is exhausted
		// once it reaches MaxRetries.
		if item.RetryCount+1 >= s.cfg.MaxRetries {
			s.logger.WithError(attemptErr).WithField("item", item.ID).Warn("delivery failed permanently")
			if err := s.queue.markFailed(item.ID, attemptErr); err != nil {
				return delivered, err
			}
			continue
		}

		s.logger.WithError(attemptErr).WithFields(logrus.Fields{
			"item":  item.ID,
			"retry": item.RetryCount + 1,
		}).Debug("delivery failed, will retry")
		if err := s.queue.markRetry(item.ID, attemptErr); err != nil {
			return delivered, err
		}
	}

	return delivered, nil
}

// Run drives ProcessOnce on a timer until ctx is cancelled. The wait
// between passes backs off with the lowest retry count still pending.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.cfg.BaseDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := s.ProcessOnce(); err != nil {
			s.logger.WithError(err).Error("queue pass failed")
		}
		timer.Reset(s.nextWait())
	}
}

// nextWait picks the delay before the next pass from the still-pending
// entry with the fewest attempts.
func (s *Scheduler) nextWait() time.Duration {
	entries, err := s.queue.Items()
	if err != nil {
		return s.cfg.BaseDelay
	}

	minRetry := -1
	for _, e := range entries {
		if e.Status != models.QueuePending {
			continue
		}
		if minRetry == -1 || e.RetryCount < minRetry {
			minRetry = e.RetryCount
		}
	}
	if minRetry == -1 {
		return s.cfg.BaseDelay
	}
	return NextDelay(minRetry, s.cfg.BaseDelay, s.cfg.MaxDelay)
}

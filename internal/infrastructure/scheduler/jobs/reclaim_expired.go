// Package jobs contains implementations of scheduled jobs for Topic Allocation Hub.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECLAIM EXPIRED RESERVATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// CacheInvalidator drops cached topic listings after reclaimed holds
// change topic statuses. May be nil.
type CacheInvalidator interface {
	InvalidateTopics(ctx context.Context)
}

// ReclaimExpiredJob is the expiry sweeper: it scans the reservation
// ledger for lapsed holds and releases their topics back to free.
//
// The sweeper is the converging mechanism of the dual bookkeeping
// between the topic registry (denormalized status column) and the
// reservation ledger (authoritative hold records): whatever desync a
// lapsed hold leaves behind is repaired within one cycle.
//
// Each cycle commits as a single transaction. A failed cycle is logged
// and dropped; the next tick retries from scratch. The job must never
// take the scheduler down with it.
type ReclaimExpiredJob struct {
	uow    allocation.UnitOfWorkFactory
	cache  CacheInvalidator
	logger *slog.Logger

	// clock returns the current time; overridable in tests.
	clock func() time.Time

	// lastRunStats holds *ReclaimStats from the most recent cycle.
	lastRunStats atomic.Value
}

// ReclaimStats describes one sweeper cycle.
type ReclaimStats struct {
	// RanAt is when the cycle started.
	RanAt time.Time

	// Expired is the number of lapsed ledger entries found.
	Expired int

	// Reclaimed is the number of topics released back to free.
	Reclaimed int
}

// NewReclaimExpiredJob creates the sweeper job.
func NewReclaimExpiredJob(uow allocation.UnitOfWorkFactory, cache CacheInvalidator, logger *slog.Logger) *ReclaimExpiredJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReclaimExpiredJob{
		uow:    uow,
		cache:  cache,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the unique name of the job.
func (j *ReclaimExpiredJob) Name() string {
	return "reclaim_expired_reservations"
}

// Description returns a human-readable description of the job.
func (j *ReclaimExpiredJob) Description() string {
	return "Releases topics held by expired reservations back to the free pool"
}

// Run executes one sweeper cycle.
func (j *ReclaimExpiredJob) Run(ctx context.Context) error {
	now := j.clock()
	stats := &ReclaimStats{RanAt: now}
	defer j.lastRunStats.Store(stats)

	uow, err := j.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("reclaim_expired: begin: %w", err)
	}
	defer func() { _ = uow.Rollback(ctx) }()

	expired, err := uow.Reservations().FindExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("reclaim_expired: find expired: %w", err)
	}
	stats.Expired = len(expired)
	if len(expired) == 0 {
		return nil
	}

	for _, res := range expired {
		t, err := uow.Topics().GetByID(ctx, res.TopicID)
		switch {
		case err == nil:
			// Reset only topics still held by the lapsed hold; a topic
			// assigned or already freed in the meantime stays untouched.
			if t.IsReserved() {
				t.Release()
				if err := uow.Topics().UpdateAllocation(ctx, t); err != nil {
					return fmt.Errorf("reclaim_expired: release topic %s: %w", t.ID, err)
				}
				stats.Reclaimed++
				j.logger.Info("reclaimed expired reservation",
					"topic_id", t.ID,
					"reservation_id", res.ID,
					"expired_at", res.ExpiresAt.Format(time.RFC3339),
				)
			}
		case errors.Is(err, shared.ErrNotFound):
			// orphaned ledger entry; just drop it
		default:
			return fmt.Errorf("reclaim_expired: load topic %s: %w", res.TopicID, err)
		}

		if err := uow.Reservations().Delete(ctx, res.ID); err != nil {
			return fmt.Errorf("reclaim_expired: delete reservation %s: %w", res.ID, err)
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return fmt.Errorf("reclaim_expired: commit: %w", err)
	}

	if j.cache != nil && stats.Reclaimed > 0 {
		j.cache.InvalidateTopics(ctx)
	}
	return nil
}

// LastStats returns stats from the most recent cycle, or nil before
// the first run.
func (j *ReclaimExpiredJob) LastStats() *ReclaimStats {
	v, _ := j.lastRunStats.Load().(*ReclaimStats)
	return v
}

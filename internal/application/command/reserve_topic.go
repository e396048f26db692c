// Package command contains write operations (CQRS - Commands).
// The four handlers in this package form the assignment coordinator:
// they are the only code allowed to move a topic through the
// free → reserved → assigned state machine.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"

	"github.com/google/uuid"
)

// TopicCacheInvalidator drops cached topic listings after a successful
// mutation. Implemented by the redis topic cache; may be nil.
type TopicCacheInvalidator interface {
	InvalidateTopics(ctx context.Context)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESERVE TOPIC COMMAND
// Creates a time-bounded exclusive hold on a free topic for a group
// representative. The hold lasts the configured TTL
// (reservation.DefaultTTL unless overridden); an abandoned hold is
// reclaimed by the background sweeper.
// ══════════════════════════════════════════════════════════════════════════════

// ReserveTopicCommand contains the data to reserve a topic.
type ReserveTopicCommand struct {
	// TopicID is the topic being reserved.
	TopicID string

	// GroupID is the group on whose behalf the hold is taken.
	GroupID string

	// UserID is the acting user. Identity is always passed in explicitly.
	UserID string

	// Now is the reservation time. Zero means time.Now().UTC().
	Now time.Time
}

// Validate validates the command.
func (c ReserveTopicCommand) Validate() error {
	if c.TopicID == "" {
		return errors.New("reserve_topic: topic_id is required")
	}
	if c.GroupID == "" {
		return errors.New("reserve_topic: group_id is required")
	}
	if c.UserID == "" {
		return errors.New("reserve_topic: user_id is required")
	}
	return nil
}

// ReserveTopicResult contains the result of a successful reservation.
type ReserveTopicResult struct {
	// ReservationID is the ID of the created ledger entry.
	ReservationID string

	// ReservedAt is when the hold was taken.
	ReservedAt time.Time

	// ExpiresAt is when the hold lapses.
	ExpiresAt time.Time
}

// ReserveTopicHandler handles the ReserveTopicCommand.
type ReserveTopicHandler struct {
	uow   allocation.UnitOfWorkFactory
	cache TopicCacheInvalidator
	ttl   time.Duration
}

// NewReserveTopicHandler creates a new ReserveTopicHandler. A
// non-positive ttl falls back to reservation.DefaultTTL.
func NewReserveTopicHandler(uow allocation.UnitOfWorkFactory, cache TopicCacheInvalidator, ttl time.Duration) *ReserveTopicHandler {
	if ttl <= 0 {
		ttl = reservation.DefaultTTL
	}
	return &ReserveTopicHandler{uow: uow, cache: cache, ttl: ttl}
}

// Handle executes the reserve topic command. Registry and ledger are
// mutated in one transaction: either both record the hold or neither does.
func (h *ReserveTopicHandler) Handle(ctx context.Context, cmd ReserveTopicCommand) (*ReserveTopicResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reserve_topic: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	uow, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	t, err := uow.Topics().GetByID(ctx, cmd.TopicID)
	if err != nil {
		return nil, err
	}
	if !t.IsFree() {
		return nil, shared.ErrTopicNotFree
	}

	// Race guard: re-check the ledger even though status implies it is
	// empty, to cover the registry/ledger desync window between sweeper
	// cycles. A stale expired row is dropped lazily here.
	existing, err := uow.Reservations().FindByTopic(ctx, cmd.TopicID)
	switch {
	case err == nil:
		if existing.IsActive(now) {
			return nil, shared.ErrReservationExists
		}
		if err := uow.Reservations().Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		// no ledger entry, proceed
	default:
		return nil, err
	}

	res, err := reservation.NewWithTTL(uuid.NewString(), cmd.TopicID, cmd.GroupID, cmd.UserID, now, h.ttl)
	if err != nil {
		return nil, err
	}
	if err := uow.Reservations().Create(ctx, res, now); err != nil {
		return nil, err
	}

	// Conditional update serializes concurrent reserve attempts: the
	// loser observes zero affected rows and receives Conflict.
	ok, err := uow.Topics().MarkReservedIfFree(ctx, cmd.TopicID, cmd.GroupID, cmd.UserID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrReservationExists
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	if h.cache != nil {
		h.cache.InvalidateTopics(ctx)
	}

	return &ReserveTopicResult{
		ReservationID: res.ID,
		ReservedAt:    res.ReservedAt,
		ExpiresAt:     res.ExpiresAt,
	}, nil
}

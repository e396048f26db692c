package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGN TOPIC COMMAND
// Converts a valid hold into the terminal binding of one topic to one
// student. The ledger entry is deleted in the same transaction.
// ══════════════════════════════════════════════════════════════════════════════

// AssignTopicCommand contains the data to assign a topic to a student.
type AssignTopicCommand struct {
	// TopicID is the topic being assigned.
	TopicID string

	// StudentID is the student receiving the topic.
	StudentID string

	// UserID is the acting user; must hold the reservation on the topic.
	UserID string

	// Now is the assignment time used for the expiry check.
	// Zero means time.Now().UTC().
	Now time.Time
}

// Validate validates the command.
func (c AssignTopicCommand) Validate() error {
	if c.TopicID == "" {
		return errors.New("assign_topic: topic_id is required")
	}
	if c.StudentID == "" {
		return errors.New("assign_topic: student_id is required")
	}
	if c.UserID == "" {
		return errors.New("assign_topic: user_id is required")
	}
	return nil
}

// AssignTopicHandler handles the AssignTopicCommand.
type AssignTopicHandler struct {
	uow   allocation.UnitOfWorkFactory
	cache TopicCacheInvalidator
}

// NewAssignTopicHandler creates a new AssignTopicHandler.
func NewAssignTopicHandler(uow allocation.UnitOfWorkFactory, cache TopicCacheInvalidator) *AssignTopicHandler {
	return &AssignTopicHandler{uow: uow, cache: cache}
}

// Handle executes the assign topic command.
func (h *AssignTopicHandler) Handle(ctx context.Context, cmd AssignTopicCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("assign_topic: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	uow, err := h.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	t, err := uow.Topics().GetByID(ctx, cmd.TopicID)
	if err != nil {
		return err
	}
	st, err := uow.Students().GetByID(ctx, cmd.StudentID)
	if err != nil {
		return err
	}

	res, err := uow.Reservations().FindByTopicAndUser(ctx, cmd.TopicID, cmd.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrNotReservationOwner
		}
		return err
	}

	// An expired hold rejects the assignment but does not release the
	// topic here; the sweeper reclaims it within one cycle.
	if res.IsExpired(now) {
		return shared.ErrReservationExpired
	}

	if t.IsAssigned() {
		return shared.ErrTopicAssigned
	}
	if st.HasTopic() {
		return shared.ErrStudentHasTopic
	}

	if err := t.MarkAssigned(st.ID, res.GroupID); err != nil {
		return err
	}
	if err := uow.Topics().UpdateAllocation(ctx, t); err != nil {
		return err
	}
	if err := uow.Students().SetTopic(ctx, st.ID, &t.ID); err != nil {
		return err
	}
	if err := uow.Reservations().Delete(ctx, res.ID); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	if h.cache != nil {
		h.cache.InvalidateTopics(ctx)
	}
	return nil
}

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
)

// ══════════════════════════════════════════════════════════════════════════════
// CANCEL RESERVATION COMMAND
// Releases a hold before it expires. Only the user who took the hold
// may cancel it; anyone else sees the same NotFound as if no hold existed.
// ══════════════════════════════════════════════════════════════════════════════

// CancelReservationCommand contains the data to cancel a reservation.
type CancelReservationCommand struct {
	// TopicID is the topic whose hold is being released.
	TopicID string

	// UserID is the acting user; must be the original reserver.
	UserID string
}

// Validate validates the command.
func (c CancelReservationCommand) Validate() error {
	if c.TopicID == "" {
		return errors.New("cancel_reservation: topic_id is required")
	}
	if c.UserID == "" {
		return errors.New("cancel_reservation: user_id is required")
	}
	return nil
}

// CancelReservationHandler handles the CancelReservationCommand.
type CancelReservationHandler struct {
	uow   allocation.UnitOfWorkFactory
	cache TopicCacheInvalidator
}

// NewCancelReservationHandler creates a new CancelReservationHandler.
func NewCancelReservationHandler(uow allocation.UnitOfWorkFactory, cache TopicCacheInvalidator) *CancelReservationHandler {
	return &CancelReservationHandler{uow: uow, cache: cache}
}

// Handle executes the cancel reservation command.
func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("cancel_reservation: validation failed: %w", err)
	}

	uow, err := h.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	// Looking up by topic AND user means a foreign hold is
	// indistinguishable from no hold: no cross-user cancellation.
	res, err := uow.Reservations().FindByTopicAndUser(ctx, cmd.TopicID, cmd.UserID)
	if err != nil {
		return err
	}

	t, err := uow.Topics().GetByID(ctx, res.TopicID)
	if err != nil {
		return err
	}
	t.Release()
	if err := uow.Topics().UpdateAllocation(ctx, t); err != nil {
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

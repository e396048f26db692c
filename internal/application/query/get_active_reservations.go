package query

import (
	"context"
	"errors"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACTIVE RESERVATIONS QUERY
// Returns the user's still-active holds with a minutes-left countdown
// for the dashboard poll. Expiry is evaluated lazily against now: a
// lapsed hold is invisible here even before the sweeper reclaims it.
// ══════════════════════════════════════════════════════════════════════════════

// GetActiveReservationsQuery identifies the user whose holds are listed.
type GetActiveReservationsQuery struct {
	// UserID is the acting user.
	UserID string

	// Now is the reference time. Zero means time.Now().UTC().
	Now time.Time
}

// ReservationView is the read model of an active hold.
type ReservationView struct {
	ReservationID string    `json:"reservation_id"`
	TopicID       string    `json:"topic_id"`
	TopicTitle    string    `json:"topic_title"`
	ReservedAt    time.Time `json:"reserved_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	MinutesLeft   int       `json:"minutes_left"`
}

// GetActiveReservationsHandler handles the GetActiveReservationsQuery.
type GetActiveReservationsHandler struct {
	ledger reservation.Repository
	topics topic.Repository
}

// NewGetActiveReservationsHandler creates a new GetActiveReservationsHandler.
func NewGetActiveReservationsHandler(ledger reservation.Repository, topics topic.Repository) *GetActiveReservationsHandler {
	return &GetActiveReservationsHandler{ledger: ledger, topics: topics}
}

// Handle executes the get active reservations query.
func (h *GetActiveReservationsHandler) Handle(ctx context.Context, q GetActiveReservationsQuery) ([]ReservationView, error) {
	if q.UserID == "" {
		return nil, shared.WrapError("reservation", "ListActive", shared.ErrInvalidInput, "user_id is required", nil)
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	holds, err := h.ledger.FindActiveByUser(ctx, q.UserID, now)
	if err != nil {
		return nil, err
	}

	views := make([]ReservationView, 0, len(holds))
	for _, r := range holds {
		view := ReservationView{
			ReservationID: r.ID,
			TopicID:       r.TopicID,
			ReservedAt:    r.ReservedAt,
			ExpiresAt:     r.ExpiresAt,
			MinutesLeft:   r.MinutesLeft(now),
		}
		t, err := h.topics.GetByID(ctx, r.TopicID)
		switch {
		case err == nil:
			view.TopicTitle = truncateTitle(t.Title, 50)
		case errors.Is(err, shared.ErrNotFound):
			// hold on a vanished topic; the sweeper will clean it up
		default:
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// truncateTitle shortens long titles for list rendering. Rune-safe.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESERVATION LEDGER IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const reservationColumns = `id, topic_id, group_id, reserved_by, reserved_at, expires_at`

// ReservationRepository implements reservation.Repository for PostgreSQL.
// The uniq_reservation_topic constraint backs the one-hold-per-topic
// invariant at the storage level.
type ReservationRepository struct {
	db Querier
}

// NewReservationRepository creates a new ReservationRepository.
func NewReservationRepository(db Querier) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new ledger entry.
func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation, now time.Time) error {
	query := `
		INSERT INTO topic_reservations (id, topic_id, group_id, reserved_by, reserved_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		res.ID,
		res.TopicID,
		res.GroupID,
		res.ReservedBy,
		res.ReservedAt,
		res.ExpiresAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrReservationExists
		}
		return storageErr("create reservation", err)
	}

	return nil
}

// FindByTopic returns the ledger entry holding the topic, expired or not.
func (r *ReservationRepository) FindByTopic(ctx context.Context, topicID string) (*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM topic_reservations WHERE topic_id = $1`

	row := r.db.QueryRow(ctx, query, topicID)
	res, err := scanReservation(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReservationNotFound
		}
		return nil, storageErr("find reservation by topic", err)
	}
	return res, nil
}

// FindByTopicAndUser returns the entry only when the user placed it.
func (r *ReservationRepository) FindByTopicAndUser(ctx context.Context, topicID, userID string) (*reservation.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM topic_reservations WHERE topic_id = $1 AND reserved_by = $2`

	row := r.db.QueryRow(ctx, query, topicID, userID)
	res, err := scanReservation(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReservationNotFound
		}
		return nil, storageErr("find reservation by topic and user", err)
	}
	return res, nil
}

// FindActiveByUser returns the user's holds that have not lapsed yet.
func (r *ReservationRepository) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*reservation.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM topic_reservations
		WHERE reserved_by = $1 AND expires_at > $2
		ORDER BY reserved_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID, now)
	if err != nil {
		return nil, storageErr("find active reservations", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// FindExpired returns all lapsed ledger entries.
func (r *ReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]*reservation.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM topic_reservations
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, storageErr("find expired reservations", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// Delete removes a ledger entry.
func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM topic_reservations WHERE id = $1`, id)
	if err != nil {
		return storageErr("delete reservation", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrReservationNotFound
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var res reservation.Reservation

	err := row.Scan(
		&res.ID,
		&res.TopicID,
		&res.GroupID,
		&res.ReservedBy,
		&res.ReservedAt,
		&res.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	res.ReservedAt = res.ReservedAt.UTC()
	res.ExpiresAt = res.ExpiresAt.UTC()
	return &res, nil
}

func scanReservations(rows pgx.Rows) ([]*reservation.Reservation, error) {
	var reservations []*reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, storageErr("scan reservation", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan reservations", err)
	}
	return reservations, nil
}

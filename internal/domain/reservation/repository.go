package reservation

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY
// Журнал резерваций - источник истины о том, какие удержания активны.
// Истечение оценивается лениво при чтении; единственный проактивный
// сборщик - фоновая задача reclaim_expired.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции журнала резерваций.
type Repository interface {
	// Create сохраняет новую резервацию.
	// Возвращает shared.ErrReservationExists, если для темы уже есть
	// активная (не истёкшая на момент now) резервация.
	Create(ctx context.Context, r *Reservation, now time.Time) error

	// FindByTopic возвращает резервацию темы (активную или истёкшую).
	// Возвращает shared.ErrReservationNotFound, если записи нет.
	FindByTopic(ctx context.Context, topicID string) (*Reservation, error)

	// FindByTopicAndUser возвращает резервацию темы, созданную пользователем.
	// Возвращает shared.ErrReservationNotFound, если записи нет.
	FindByTopicAndUser(ctx context.Context, topicID, userID string) (*Reservation, error)

	// FindActiveByUser возвращает резервации пользователя с expires_at > now.
	FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*Reservation, error)

	// FindExpired возвращает все резервации с expires_at < now.
	FindExpired(ctx context.Context, now time.Time) ([]*Reservation, error)

	// Delete удаляет резервацию по ID.
	// Возвращает shared.ErrReservationNotFound, если записи нет.
	Delete(ctx context.Context, id string) error
}

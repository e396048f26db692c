// Package reservation содержит доменную модель временной резервации темы.
// Резервация - эксклюзивное удержание темы представителем группы
// на фиксированный срок до окончательного назначения.
package reservation

import (
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// DefaultTTL - срок действия резервации. Истёкшие резервации
// невидимы для активных выборок и вычищаются фоновым сборщиком.
const DefaultTTL = 30 * time.Minute

// Reservation - активное удержание темы. На одну тему может существовать
// не более одной активной резервации; уникальность обеспечивает координатор
// перед вставкой, а не схема хранилища.
type Reservation struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TopicID - зарезервированная тема.
	TopicID string

	// GroupID - группа, от имени которой сделана резервация.
	GroupID string

	// ReservedBy - пользователь, создавший резервацию. Только он может
	// отменить её или завершить назначением.
	ReservedBy string

	// ReservedAt - момент создания.
	ReservedAt time.Time

	// ExpiresAt - момент истечения (ReservedAt + TTL).
	ExpiresAt time.Time
}

// New создаёт резервацию с истечением через DefaultTTL от now.
// Все временные метки - в UTC.
func New(id, topicID, groupID, userID string, now time.Time) (*Reservation, error) {
	return NewWithTTL(id, topicID, groupID, userID, now, DefaultTTL)
}

// NewWithTTL создаёт резервацию с заданным сроком действия.
// Неположительный ttl заменяется на DefaultTTL.
func NewWithTTL(id, topicID, groupID, userID string, now time.Time, ttl time.Duration) (*Reservation, error) {
	if id == "" {
		return nil, shared.WrapError("reservation", "New", shared.ErrInvalidID, "id is required", nil)
	}
	if topicID == "" || groupID == "" || userID == "" {
		return nil, shared.WrapError("reservation", "New", shared.ErrInvalidInput, "topic, group and user are required", nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	return &Reservation{
		ID:         id,
		TopicID:    topicID,
		GroupID:    groupID,
		ReservedBy: userID,
		ReservedAt: now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// IsActive возвращает true, если резервация ещё действует.
func (r *Reservation) IsActive(now time.Time) bool {
	return r.ExpiresAt.After(now)
}

// IsExpired возвращает true, если срок резервации истёк.
func (r *Reservation) IsExpired(now time.Time) bool {
	return !r.IsActive(now)
}

// OwnedBy проверяет, принадлежит ли резервация пользователю.
func (r *Reservation) OwnedBy(userID string) bool {
	return r.ReservedBy == userID
}

// MinutesLeft возвращает оставшиеся минуты действия (0 для истёкшей).
func (r *Reservation) MinutesLeft(now time.Time) int {
	if r.IsExpired(now) {
		return 0
	}
	return int(r.ExpiresAt.Sub(now).Minutes())
}

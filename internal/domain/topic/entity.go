// Package topic содержит доменную модель темы курсовой/дипломной работы.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package topic

import (
	"strings"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус темы в машине состояний.
// Переходы: free → reserved → assigned, reserved → free (отмена/истечение),
// free → assigned (случайное распределение).
type Status string

const (
	// StatusFree - тема свободна и может быть зарезервирована.
	StatusFree Status = "free"
	// StatusReserved - тема зарезервирована группой на ограниченное время.
	StatusReserved Status = "reserved"
	// StatusAssigned - тема закреплена за студентом (терминальное состояние).
	StatusAssigned Status = "assigned"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusFree, StatusReserved, StatusAssigned:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода в новый статус.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusFree:
		return next == StatusReserved || next == StatusAssigned
	case StatusReserved:
		return next == StatusFree || next == StatusAssigned
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TOPIC
// ══════════════════════════════════════════════════════════════════════════════

// Topic - единица работы (тема курсовой или дипломной), закрепляемая
// за одним студентом. Статус и поля владения мутируются только
// координатором назначений и фоновым сборщиком просроченных резерваций.
type Topic struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Title - название темы.
	Title string

	// Status - текущий статус темы.
	Status Status

	// SupervisorID - руководитель темы.
	SupervisorID string

	// WorkTypeID - тип работы (курсовая/дипломная + предмет).
	WorkTypeID string

	// GroupID - группа, владеющая темой (nil для свободной темы).
	GroupID *string

	// StudentID - студент, за которым закреплена тема (nil до назначения).
	StudentID *string

	// ReservedAt - момент резервации (nil для свободной темы).
	ReservedAt *time.Time

	// ReservedBy - пользователь, создавший резервацию (nil для свободной темы).
	ReservedBy *string
}

// NewTopic создаёт новую свободную тему. Темы создаются только импортом.
func NewTopic(id, title, supervisorID, workTypeID string) (*Topic, error) {
	if id == "" {
		return nil, shared.WrapError("topic", "New", shared.ErrInvalidID, "id is required", nil)
	}
	if strings.TrimSpace(title) == "" {
		return nil, shared.WrapError("topic", "New", shared.ErrEmptyValue, "title is required", nil)
	}
	if supervisorID == "" || workTypeID == "" {
		return nil, shared.WrapError("topic", "New", shared.ErrInvalidInput, "supervisor and work type are required", nil)
	}
	return &Topic{
		ID:           id,
		Title:        title,
		Status:       StatusFree,
		SupervisorID: supervisorID,
		WorkTypeID:   workTypeID,
	}, nil
}

// IsFree возвращает true, если тему можно зарезервировать.
func (t *Topic) IsFree() bool {
	return t.Status == StatusFree
}

// IsReserved возвращает true, если тема удерживается резервацией.
func (t *Topic) IsReserved() bool {
	return t.Status == StatusReserved
}

// IsAssigned возвращает true, если тема закреплена за студентом.
func (t *Topic) IsAssigned() bool {
	return t.Status == StatusAssigned
}

// MarkReserved переводит тему в состояние reserved от имени группы и
// пользователя. Возвращает ошибку, если тема не свободна.
func (t *Topic) MarkReserved(groupID, userID string, at time.Time) error {
	if !t.Status.CanTransitionTo(StatusReserved) {
		return shared.ErrTopicNotFree
	}
	t.Status = StatusReserved
	t.GroupID = &groupID
	t.ReservedAt = &at
	t.ReservedBy = &userID
	t.StudentID = nil
	return nil
}

// MarkAssigned закрепляет тему за студентом. Резервация (если была)
// должна быть удалена вызывающей стороной в той же транзакции.
func (t *Topic) MarkAssigned(studentID, groupID string) error {
	if !t.Status.CanTransitionTo(StatusAssigned) {
		return shared.ErrTopicAssigned
	}
	t.Status = StatusAssigned
	t.StudentID = &studentID
	t.GroupID = &groupID
	t.ReservedAt = nil
	t.ReservedBy = nil
	return nil
}

// Release возвращает тему в состояние free и очищает поля владения.
func (t *Topic) Release() {
	t.Status = StatusFree
	t.GroupID = nil
	t.StudentID = nil
	t.ReservedAt = nil
	t.ReservedBy = nil
}

// Validate проверяет инварианты связки статус/поля владения:
// free ⇒ все поля владения nil; reserved ⇒ группа и момент резервации
// заданы, студент nil; assigned ⇒ студент задан.
func (t *Topic) Validate() error {
	if !t.Status.IsValid() {
		return shared.WrapError("topic", "Validate", shared.ErrInvalidState, "unknown status", nil)
	}
	switch t.Status {
	case StatusFree:
		if t.GroupID != nil || t.StudentID != nil || t.ReservedAt != nil || t.ReservedBy != nil {
			return shared.WrapError("topic", "Validate", shared.ErrInvalidState, "free topic must have no ownership fields", nil)
		}
	case StatusReserved:
		if t.GroupID == nil || t.ReservedAt == nil || t.ReservedBy == nil {
			return shared.WrapError("topic", "Validate", shared.ErrInvalidState, "reserved topic must have group and reservation fields", nil)
		}
		if t.StudentID != nil {
			return shared.WrapError("topic", "Validate", shared.ErrInvalidState, "reserved topic cannot have a student", nil)
		}
	case StatusAssigned:
		if t.StudentID == nil {
			return shared.WrapError("topic", "Validate", shared.ErrInvalidState, "assigned topic must have a student", nil)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// WorkType - категория работы (например, "курсовая" по предмету "Базы данных").
// Пара имя+предмет уникальна и используется как естественный ключ при импорте.
type WorkType struct {
	ID      string
	Name    string
	Subject string
}

// Supervisor - руководитель тем.
type Supervisor struct {
	ID       string
	FullName string
	// Subjects - список предметов через запятую, как приходит из импорта.
	Subjects string
}

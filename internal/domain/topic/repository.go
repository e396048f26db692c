package topic

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с реестром тем.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Filter содержит необязательные фильтры для выборки тем.
type Filter struct {
	// Status - фильтр по статусу (nil - все статусы).
	Status *Status

	// WorkTypeID - фильтр по типу работы.
	WorkTypeID *string

	// GroupID - фильтр по владеющей группе.
	GroupID *string
}

// Repository определяет операции реестра тем. Реестр не выполняет
// самостоятельной валидации - инварианты обеспечивает координатор.
type Repository interface {
	// Create создаёт новую тему (всегда в статусе free).
	Create(ctx context.Context, t *Topic) error

	// GetByID возвращает тему по ID.
	// Возвращает shared.ErrTopicNotFound, если тема не найдена.
	GetByID(ctx context.Context, id string) (*Topic, error)

	// List возвращает темы с применением фильтров.
	List(ctx context.Context, f Filter) ([]*Topic, error)

	// ListFreeByWorkType возвращает свободные темы указанного типа работы.
	ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*Topic, error)

	// UpdateAllocation сохраняет статус и поля владения темы одним запросом.
	// Возвращает shared.ErrTopicNotFound, если тема не найдена.
	UpdateAllocation(ctx context.Context, t *Topic) error

	// MarkReservedIfFree атомарно переводит тему из free в reserved.
	// Возвращает false без ошибки, если тема уже не свободна - это
	// защита от гонки двух конкурентных резерваций.
	MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error)
}

// WorkTypeRepository определяет операции справочника типов работ.
type WorkTypeRepository interface {
	// Create создаёт тип работы.
	Create(ctx context.Context, wt *WorkType) error

	// GetByID возвращает тип работы по ID.
	// Возвращает shared.ErrWorkTypeNotFound, если не найден.
	GetByID(ctx context.Context, id string) (*WorkType, error)

	// GetByNameAndSubject возвращает тип работы по естественному ключу.
	// Возвращает shared.ErrWorkTypeNotFound, если не найден.
	GetByNameAndSubject(ctx context.Context, name, subject string) (*WorkType, error)

	// List возвращает все типы работ.
	List(ctx context.Context) ([]*WorkType, error)
}

// SupervisorRepository определяет операции справочника руководителей.
type SupervisorRepository interface {
	// Create создаёт руководителя.
	Create(ctx context.Context, s *Supervisor) error

	// GetByFullName возвращает руководителя по ФИО (естественный ключ импорта).
	// Возвращает shared.ErrNotFound, если не найден.
	GetByFullName(ctx context.Context, fullName string) (*Supervisor, error)

	// List возвращает всех руководителей.
	List(ctx context.Context) ([]*Supervisor, error)
}

package group

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над группами.
type Repository interface {
	// Create создаёт группу.
	// Возвращает shared.ErrGroupAlreadyExists при дубликате имени.
	Create(ctx context.Context, g *Group) error

	// GetByID возвращает группу по ID.
	// Возвращает shared.ErrGroupNotFound, если группа не найдена.
	GetByID(ctx context.Context, id string) (*Group, error)

	// GetByName возвращает группу по имени (естественный ключ импорта).
	// Возвращает shared.ErrGroupNotFound, если группа не найдена.
	GetByName(ctx context.Context, name string) (*Group, error)

	// List возвращает все группы.
	List(ctx context.Context) ([]*Group, error)
}

// StudentRepository определяет операции над студентами.
type StudentRepository interface {
	// Create создаёт студента.
	Create(ctx context.Context, s *Student) error

	// GetByID возвращает студента по ID.
	// Возвращает shared.ErrStudentNotFound, если студент не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// ListByGroup возвращает студентов группы.
	ListByGroup(ctx context.Context, groupID string) ([]*Student, error)

	// ListUnassignedByGroup возвращает студентов группы без назначенной темы.
	ListUnassignedByGroup(ctx context.Context, groupID string) ([]*Student, error)

	// SetTopic закрепляет тему за студентом (nil - открепляет).
	// Возвращает shared.ErrStudentNotFound, если студент не найден.
	SetTopic(ctx context.Context, studentID string, topicID *string) error
}

// UserRepository определяет операции над пользователями.
type UserRepository interface {
	// Create создаёт пользователя.
	// Возвращает shared.ErrUserAlreadyExists при дубликате имени.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает пользователя по ID.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByUsername возвращает пользователя по имени для входа.
	// Возвращает shared.ErrUserNotFound, если пользователь не найден.
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Package group содержит доменные модели учебной группы, студента
// и пользователя системы.
package group

import (
	"strings"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role определяет роль пользователя системы.
type Role string

const (
	// RoleAdmin - администратор (импорт данных, случайное распределение).
	RoleAdmin Role = "admin"
	// RoleHeadman - староста группы (резервация и назначение тем).
	RoleHeadman Role = "headman"
	// RoleStudent - студент (просмотр своей темы).
	RoleStudent Role = "student"
)

// IsValid проверяет, что роль корректна.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHeadman, RoleStudent:
		return true
	default:
		return false
	}
}

// CanReserve возвращает true, если роль может резервировать темы.
func (r Role) CanReserve() bool {
	return r == RoleHeadman || r == RoleStudent
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Group - учебная группа. Владеет студентами и пользователями,
// один из которых выступает заявителем при резервации тем.
type Group struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - название группы (например, "ИТ-21"). Уникально,
	// используется как естественный ключ при импорте.
	Name string

	// CMK - цикловая методическая комиссия.
	CMK string
}

// NewGroup создаёт группу.
func NewGroup(id, name, cmk string) (*Group, error) {
	if id == "" {
		return nil, shared.WrapError("group", "New", shared.ErrInvalidID, "id is required", nil)
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.WrapError("group", "New", shared.ErrEmptyValue, "name is required", nil)
	}
	return &Group{ID: id, Name: name, CMK: cmk}, nil
}

// Student - студент группы. Может держать не более одной назначенной темы.
type Student struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// FullName - ФИО студента.
	FullName string

	// Phone - контактный телефон (опционально).
	Phone string

	// GroupID - группа студента.
	GroupID string

	// TopicID - назначенная тема (nil, пока темы нет).
	TopicID *string
}

// NewStudent создаёт студента без назначенной темы.
func NewStudent(id, fullName, phone, groupID string) (*Student, error) {
	if id == "" {
		return nil, shared.WrapError("group", "NewStudent", shared.ErrInvalidID, "id is required", nil)
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, shared.WrapError("group", "NewStudent", shared.ErrEmptyValue, "full name is required", nil)
	}
	if groupID == "" {
		return nil, shared.WrapError("group", "NewStudent", shared.ErrInvalidInput, "group is required", nil)
	}
	return &Student{ID: id, FullName: fullName, Phone: phone, GroupID: groupID}, nil
}

// HasTopic возвращает true, если за студентом уже закреплена тема.
func (s *Student) HasTopic() bool {
	return s.TopicID != nil
}

// User - учётная запись системы. Идентичность пользователя передаётся
// в каждый вызов координатора явно - никакого неявного "текущего актора".
type User struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// Username - уникальное имя для входа.
	Username string

	// PasswordHash - bcrypt-хеш пароля. Хеширование выполняет
	// инфраструктурный слой.
	PasswordHash string

	// Role - роль пользователя.
	Role Role

	// GroupID - группа пользователя (nil для администратора).
	GroupID *string

	// StudentID - связанная запись студента (только для роли student).
	StudentID *string
}

// NewUser создаёт пользователя с уже вычисленным хешем пароля.
func NewUser(id, username, passwordHash string, role Role) (*User, error) {
	if id == "" {
		return nil, shared.WrapError("group", "NewUser", shared.ErrInvalidID, "id is required", nil)
	}
	if strings.TrimSpace(username) == "" {
		return nil, shared.WrapError("group", "NewUser", shared.ErrEmptyValue, "username is required", nil)
	}
	if !role.IsValid() {
		return nil, shared.WrapError("group", "NewUser", shared.ErrInvalidInput, "unknown role", nil)
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, Role: role}, nil
}

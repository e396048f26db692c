// Package importer loads the initial roster and topic catalog into the
// store. Imports are idempotent: rows already present (matched by their
// natural keys) are skipped, so re-running an import is safe.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// INPUT ROWS
// ══════════════════════════════════════════════════════════════════════════════

// StudentRow is one roster row.
type StudentRow struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	GroupName string `json:"group_name"`
	GroupCMK  string `json:"group_cmk"`
}

// TopicRow is one topic catalog row.
type TopicRow struct {
	Title           string `json:"title"`
	SupervisorName  string `json:"supervisor_name"`
	SupervisorSubjs string `json:"supervisor_subjects"`
	WorkTypeName    string `json:"work_type_name"`
	Subject         string `json:"subject"`
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Created int
	Skipped int
}

// ══════════════════════════════════════════════════════════════════════════════
// IMPORTER
// ══════════════════════════════════════════════════════════════════════════════

// Importer writes roster and catalog data through the repositories.
type Importer struct {
	groups      group.Repository
	students    group.StudentRepository
	users       group.UserRepository
	supervisors topic.SupervisorRepository
	workTypes   topic.WorkTypeRepository
	topics      topic.Repository
	logger      *slog.Logger
}

// New creates a new Importer.
func New(
	groups group.Repository,
	students group.StudentRepository,
	users group.UserRepository,
	supervisors topic.SupervisorRepository,
	workTypes topic.WorkTypeRepository,
	topics topic.Repository,
	logger *slog.Logger,
) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		groups:      groups,
		students:    students,
		users:       users,
		supervisors: supervisors,
		workTypes:   workTypes,
		topics:      topics,
		logger:      logger,
	}
}

// ImportStudents loads roster rows, creating missing groups on the way.
// A student is skipped when a same-named student already exists in the
// group.
func (im *Importer) ImportStudents(ctx context.Context, rows []StudentRow) (*ImportStats, error) {
	stats := &ImportStats{}
	groupIDs := make(map[string]string)

	for _, row := range rows {
		if row.FullName == "" || row.GroupName == "" {
			stats.Skipped++
			continue
		}

		groupID, ok := groupIDs[row.GroupName]
		if !ok {
			g, err := im.ensureGroup(ctx, row.GroupName, row.GroupCMK)
			if err != nil {
				return stats, err
			}
			groupID = g.ID
			groupIDs[row.GroupName] = groupID
		}

		exists, err := im.studentExists(ctx, groupID, row.FullName)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}

		st, err := group.NewStudent(uuid.NewString(), row.FullName, row.Phone, groupID)
		if err != nil {
			return stats, fmt.Errorf("importer: invalid student row %q: %w", row.FullName, err)
		}
		if err := im.students.Create(ctx, st); err != nil {
			return stats, fmt.Errorf("importer: create student %q: %w", row.FullName, err)
		}
		stats.Created++
	}

	im.logger.Info("student import finished", "created", stats.Created, "skipped", stats.Skipped)
	return stats, nil
}

// ImportTopics loads catalog rows, creating missing supervisors and
// work types on the way. Every imported topic starts free.
func (im *Importer) ImportTopics(ctx context.Context, rows []TopicRow) (*ImportStats, error) {
	stats := &ImportStats{}

	for _, row := range rows {
		if row.Title == "" || row.SupervisorName == "" || row.WorkTypeName == "" {
			stats.Skipped++
			continue
		}

		sup, err := im.ensureSupervisor(ctx, row.SupervisorName, row.SupervisorSubjs)
		if err != nil {
			return stats, err
		}
		wt, err := im.ensureWorkType(ctx, row.WorkTypeName, row.Subject)
		if err != nil {
			return stats, err
		}

		t, err := topic.NewTopic(uuid.NewString(), row.Title, sup.ID, wt.ID)
		if err != nil {
			return stats, fmt.Errorf("importer: invalid topic row %q: %w", row.Title, err)
		}
		if err := im.topics.Create(ctx, t); err != nil {
			return stats, fmt.Errorf("importer: create topic %q: %w", row.Title, err)
		}
		stats.Created++
	}

	im.logger.Info("topic import finished", "created", stats.Created, "skipped", stats.Skipped)
	return stats, nil
}

// DefaultAccount describes one seeded user account.
type DefaultAccount struct {
	Username string
	Password string
	Role     group.Role
	GroupID  *string
}

// SeedAccounts creates user accounts that do not exist yet. Passwords
// are stored as bcrypt hashes.
func (im *Importer) SeedAccounts(ctx context.Context, accounts []DefaultAccount) error {
	for _, acc := range accounts {
		_, err := im.users.GetByUsername(ctx, acc.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("importer: lookup user %q: %w", acc.Username, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("importer: hash password for %q: %w", acc.Username, err)
		}

		u, err := group.NewUser(uuid.NewString(), acc.Username, string(hash), acc.Role)
		if err != nil {
			return fmt.Errorf("importer: invalid account %q: %w", acc.Username, err)
		}
		u.GroupID = acc.GroupID

		if err := im.users.Create(ctx, u); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return fmt.Errorf("importer: create user %q: %w", acc.Username, err)
		}
		im.logger.Info("seeded account", "username", acc.Username, "role", string(acc.Role))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENSURE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (im *Importer) ensureGroup(ctx context.Context, name, cmk string) (*group.Group, error) {
	g, err := im.groups.GetByName(ctx, name)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("importer: lookup group %q: %w", name, err)
	}

	g, err = group.NewGroup(uuid.NewString(), name, cmk)
	if err != nil {
		return nil, fmt.Errorf("importer: invalid group %q: %w", name, err)
	}
	if err := im.groups.Create(ctx, g); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return im.groups.GetByName(ctx, name)
		}
		return nil, fmt.Errorf("importer: create group %q: %w", name, err)
	}
	return g, nil
}

func (im *Importer) ensureSupervisor(ctx context.Context, fullName, subjects string) (*topic.Supervisor, error) {
	s, err := im.supervisors.GetByFullName(ctx, fullName)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("importer: lookup supervisor %q: %w", fullName, err)
	}

	s = &topic.Supervisor{ID: uuid.NewString(), FullName: fullName, Subjects: subjects}
	if err := im.supervisors.Create(ctx, s); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return im.supervisors.GetByFullName(ctx, fullName)
		}
		return nil, fmt.Errorf("importer: create supervisor %q: %w", fullName, err)
	}
	return s, nil
}

func (im *Importer) ensureWorkType(ctx context.Context, name, subject string) (*topic.WorkType, error) {
	wt, err := im.workTypes.GetByNameAndSubject(ctx, name, subject)
	if err == nil {
		return wt, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("importer: lookup work type %q: %w", name, err)
	}

	wt = &topic.WorkType{ID: uuid.NewString(), Name: name, Subject: subject}
	if err := im.workTypes.Create(ctx, wt); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return im.workTypes.GetByNameAndSubject(ctx, name, subject)
		}
		return nil, fmt.Errorf("importer: create work type %q: %w", name, err)
	}
	return wt, nil
}

func (im *Importer) studentExists(ctx context.Context, groupID, fullName string) (bool, error) {
	students, err := im.students.ListByGroup(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("importer: list students: %w", err)
	}
	for _, st := range students {
		if st.FullName == fullName {
			return true, nil
		}
	}
	return false, nil
}

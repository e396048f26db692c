package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GROUP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GroupRepository implements group.Repository for PostgreSQL.
type GroupRepository struct {
	db Querier
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db Querier) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	query := `INSERT INTO groups (id, name, cmk) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, g.ID, g.Name, g.CMK)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrGroupAlreadyExists
		}
		return storageErr("create group", err)
	}

	return nil
}

// GetByID returns a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*group.Group, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, cmk FROM groups WHERE id = $1`, id)

	var g group.Group
	err := row.Scan(&g.ID, &g.Name, &g.CMK)
	if IsNoRows(err) {
		return nil, shared.ErrGroupNotFound
	}
	if err != nil {
		return nil, storageErr("get group", err)
	}
	return &g, nil
}

// GetByName returns a group by its unique name.
func (r *GroupRepository) GetByName(ctx context.Context, name string) (*group.Group, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, cmk FROM groups WHERE name = $1`, name)

	var g group.Group
	err := row.Scan(&g.ID, &g.Name, &g.CMK)
	if IsNoRows(err) {
		return nil, shared.ErrGroupNotFound
	}
	if err != nil {
		return nil, storageErr("get group by name", err)
	}
	return &g, nil
}

// List returns all groups ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]*group.Group, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, cmk FROM groups ORDER BY name`)
	if err != nil {
		return nil, storageErr("list groups", err)
	}
	defer rows.Close()

	var groups []*group.Group
	for rows.Next() {
		var g group.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CMK); err != nil {
			return nil, storageErr("scan group", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan groups", err)
	}
	return groups, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements group.StudentRepository for PostgreSQL.
type StudentRepository struct {
	db Querier
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db Querier) *StudentRepository {
	return &StudentRepository{db: db}
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *group.Student) error {
	query := `INSERT INTO students (id, full_name, phone, group_id, topic_id) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, s.ID, s.FullName, s.Phone, s.GroupID, s.TopicID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storageErr("create student", err)
	}

	return nil
}

// GetByID returns a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*group.Student, error) {
	query := `SELECT id, full_name, phone, group_id, topic_id FROM students WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	s, err := scanStudent(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, storageErr("get student", err)
	}
	return s, nil
}

// ListByGroup returns all students of a group.
func (r *StudentRepository) ListByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	query := `SELECT id, full_name, phone, group_id, topic_id FROM students WHERE group_id = $1 ORDER BY full_name`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, storageErr("list students", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// ListUnassignedByGroup returns group students without a topic.
func (r *StudentRepository) ListUnassignedByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	query := `
		SELECT id, full_name, phone, group_id, topic_id
		FROM students
		WHERE group_id = $1 AND topic_id IS NULL
		ORDER BY full_name
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, storageErr("list unassigned students", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

// SetTopic updates the student's topic binding. nil clears it.
func (r *StudentRepository) SetTopic(ctx context.Context, studentID string, topicID *string) error {
	result, err := r.db.Exec(ctx, `UPDATE students SET topic_id = $1 WHERE id = $2`, topicID, studentID)
	if err != nil {
		return storageErr("set student topic", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrStudentNotFound
	}

	return nil
}

func scanStudent(row pgx.Row) (*group.Student, error) {
	var s group.Student
	err := row.Scan(&s.ID, &s.FullName, &s.Phone, &s.GroupID, &s.TopicID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStudents(rows pgx.Rows) ([]*group.Student, error) {
	var students []*group.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, storageErr("scan student", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan students", err)
	}
	return students, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements group.UserRepository for PostgreSQL.
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *group.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, group_id, student_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query, u.ID, u.Username, u.PasswordHash, string(u.Role), u.GroupID, u.StudentID)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return storageErr("create user", err)
	}

	return nil
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*group.User, error) {
	query := `SELECT id, username, password_hash, role, group_id, student_id FROM users WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanUser(row)
}

// GetByUsername returns a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*group.User, error) {
	query := `SELECT id, username, password_hash, role, group_id, student_id FROM users WHERE username = $1`

	row := r.db.QueryRow(ctx, query, username)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*group.User, error) {
	var u group.User
	var role string

	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.GroupID, &u.StudentID)
	if IsNoRows(err) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}

	u.Role = group.Role(role)
	return &u, nil
}

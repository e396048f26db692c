package postgres

import (
	"context"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// WORK TYPE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// WorkTypeRepository implements topic.WorkTypeRepository for PostgreSQL.
type WorkTypeRepository struct {
	db Querier
}

// NewWorkTypeRepository creates a new WorkTypeRepository.
func NewWorkTypeRepository(db Querier) *WorkTypeRepository {
	return &WorkTypeRepository{db: db}
}

// Create inserts a new work type.
func (r *WorkTypeRepository) Create(ctx context.Context, wt *topic.WorkType) error {
	query := `INSERT INTO work_types (id, name, subject) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, wt.ID, wt.Name, wt.Subject)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storageErr("create work type", err)
	}

	return nil
}

// GetByID returns a work type by ID.
func (r *WorkTypeRepository) GetByID(ctx context.Context, id string) (*topic.WorkType, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, subject FROM work_types WHERE id = $1`, id)

	var wt topic.WorkType
	err := row.Scan(&wt.ID, &wt.Name, &wt.Subject)
	if IsNoRows(err) {
		return nil, shared.ErrWorkTypeNotFound
	}
	if err != nil {
		return nil, storageErr("get work type", err)
	}
	return &wt, nil
}

// GetByNameAndSubject returns a work type by its natural key.
func (r *WorkTypeRepository) GetByNameAndSubject(ctx context.Context, name, subject string) (*topic.WorkType, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, subject FROM work_types WHERE name = $1 AND subject = $2`,
		name, subject,
	)

	var wt topic.WorkType
	err := row.Scan(&wt.ID, &wt.Name, &wt.Subject)
	if IsNoRows(err) {
		return nil, shared.ErrWorkTypeNotFound
	}
	if err != nil {
		return nil, storageErr("get work type by name", err)
	}
	return &wt, nil
}

// List returns all work types.
func (r *WorkTypeRepository) List(ctx context.Context) ([]*topic.WorkType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, subject FROM work_types ORDER BY name, subject`)
	if err != nil {
		return nil, storageErr("list work types", err)
	}
	defer rows.Close()

	var workTypes []*topic.WorkType
	for rows.Next() {
		var wt topic.WorkType
		if err := rows.Scan(&wt.ID, &wt.Name, &wt.Subject); err != nil {
			return nil, storageErr("scan work type", err)
		}
		workTypes = append(workTypes, &wt)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan work types", err)
	}
	return workTypes, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUPERVISOR REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SupervisorRepository implements topic.SupervisorRepository for PostgreSQL.
type SupervisorRepository struct {
	db Querier
}

// NewSupervisorRepository creates a new SupervisorRepository.
func NewSupervisorRepository(db Querier) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// Create inserts a new supervisor.
func (r *SupervisorRepository) Create(ctx context.Context, s *topic.Supervisor) error {
	query := `INSERT INTO supervisors (id, full_name, subjects) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(ctx, query, s.ID, s.FullName, s.Subjects)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storageErr("create supervisor", err)
	}

	return nil
}

// GetByFullName returns a supervisor by full name.
func (r *SupervisorRepository) GetByFullName(ctx context.Context, fullName string) (*topic.Supervisor, error) {
	row := r.db.QueryRow(ctx, `SELECT id, full_name, subjects FROM supervisors WHERE full_name = $1`, fullName)

	var s topic.Supervisor
	err := row.Scan(&s.ID, &s.FullName, &s.Subjects)
	if IsNoRows(err) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get supervisor", err)
	}
	return &s, nil
}

// List returns all supervisors.
func (r *SupervisorRepository) List(ctx context.Context) ([]*topic.Supervisor, error) {
	rows, err := r.db.Query(ctx, `SELECT id, full_name, subjects FROM supervisors ORDER BY full_name`)
	if err != nil {
		return nil, storageErr("list supervisors", err)
	}
	defer rows.Close()

	var supervisors []*topic.Supervisor
	for rows.Next() {
		var s topic.Supervisor
		if err := rows.Scan(&s.ID, &s.FullName, &s.Subjects); err != nil {
			return nil, storageErr("scan supervisor", err)
		}
		supervisors = append(supervisors, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan supervisors", err)
	}
	return supervisors, nil
}

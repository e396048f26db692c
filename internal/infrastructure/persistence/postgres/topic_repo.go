package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const topicColumns = `id, title, status, supervisor_id, work_type_id, group_id, student_id, reserved_at, reserved_by`

// TopicRepository implements topic.Repository for PostgreSQL.
type TopicRepository struct {
	db Querier
}

// NewTopicRepository creates a new TopicRepository.
func NewTopicRepository(db Querier) *TopicRepository {
	return &TopicRepository{db: db}
}

// Create inserts a new topic.
func (r *TopicRepository) Create(ctx context.Context, t *topic.Topic) error {
	query := `
		INSERT INTO topics (id, title, status, supervisor_id, work_type_id, group_id, student_id, reserved_at, reserved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		string(t.Status),
		t.SupervisorID,
		t.WorkTypeID,
		t.GroupID,
		t.StudentID,
		t.ReservedAt,
		t.ReservedBy,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return storageErr("create topic", err)
	}

	return nil
}

// GetByID returns a topic by ID.
func (r *TopicRepository) GetByID(ctx context.Context, id string) (*topic.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	t, err := scanTopic(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTopicNotFound
		}
		return nil, storageErr("get topic", err)
	}
	return t, nil
}

// List returns topics matching the filter, newest first.
func (r *TopicRepository) List(ctx context.Context, f topic.Filter) ([]*topic.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics`

	var conditions []string
	var args []interface{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.WorkTypeID != nil {
		args = append(args, *f.WorkTypeID)
		conditions = append(conditions, fmt.Sprintf("work_type_id = $%d", len(args)))
	}
	if f.GroupID != nil {
		args = append(args, *f.GroupID)
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list topics", err)
	}
	defer rows.Close()

	return scanTopics(rows)
}

// ListFreeByWorkType returns all free topics of the work type.
func (r *TopicRepository) ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*topic.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE work_type_id = $1 AND status = 'free'`

	rows, err := r.db.Query(ctx, query, workTypeID)
	if err != nil {
		return nil, storageErr("list free topics", err)
	}
	defer rows.Close()

	return scanTopics(rows)
}

// UpdateAllocation persists the allocation fields of a topic.
func (r *TopicRepository) UpdateAllocation(ctx context.Context, t *topic.Topic) error {
	query := `
		UPDATE topics SET
			status = $1,
			group_id = $2,
			student_id = $3,
			reserved_at = $4,
			reserved_by = $5,
			updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.db.Exec(ctx, query,
		string(t.Status),
		t.GroupID,
		t.StudentID,
		t.ReservedAt,
		t.ReservedBy,
		t.ID,
	)
	if err != nil {
		return storageErr("update topic allocation", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrTopicNotFound
	}

	return nil
}

// MarkReservedIfFree flips a free topic to reserved in one conditional
// statement. Returns false when the topic was no longer free, which is
// how a lost race between two concurrent reservers surfaces.
func (r *TopicRepository) MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error) {
	query := `
		UPDATE topics SET
			status = 'reserved',
			group_id = $1,
			reserved_at = $2,
			reserved_by = $3,
			updated_at = NOW()
		WHERE id = $4 AND status = 'free'
	`

	result, err := r.db.Exec(ctx, query, groupID, at, userID, topicID)
	if err != nil {
		return false, storageErr("mark topic reserved", err)
	}

	return result.RowsAffected() > 0, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCAN HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func scanTopic(row pgx.Row) (*topic.Topic, error) {
	var t topic.Topic
	var status string

	err := row.Scan(
		&t.ID,
		&t.Title,
		&status,
		&t.SupervisorID,
		&t.WorkTypeID,
		&t.GroupID,
		&t.StudentID,
		&t.ReservedAt,
		&t.ReservedBy,
	)
	if err != nil {
		return nil, err
	}

	t.Status = topic.Status(status)
	if t.ReservedAt != nil {
		utc := t.ReservedAt.UTC()
		t.ReservedAt = &utc
	}
	return &t, nil
}

func scanTopics(rows pgx.Rows) ([]*topic.Topic, error) {
	var topics []*topic.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, storageErr("scan topic", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan topics", err)
	}
	return topics, nil
}

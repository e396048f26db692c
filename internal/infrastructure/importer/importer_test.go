package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory repositories
// ─────────────────────────────────────────────────────────────────────────────

type memGroups struct{ byName map[string]*group.Group }

func (r *memGroups) Create(ctx context.Context, g *group.Group) error {
	if _, ok := r.byName[g.Name]; ok {
		return shared.ErrGroupAlreadyExists
	}
	r.byName[g.Name] = g
	return nil
}

func (r *memGroups) GetByID(ctx context.Context, id string) (*group.Group, error) {
	for _, g := range r.byName {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, shared.ErrGroupNotFound
}

func (r *memGroups) GetByName(ctx context.Context, name string) (*group.Group, error) {
	g, ok := r.byName[name]
	if !ok {
		return nil, shared.ErrGroupNotFound
	}
	return g, nil
}

func (r *memGroups) List(ctx context.Context) ([]*group.Group, error) { return nil, nil }

type memStudents struct{ byID map[string]*group.Student }

func (r *memStudents) Create(ctx context.Context, s *group.Student) error {
	r.byID[s.ID] = s
	return nil
}

func (r *memStudents) GetByID(ctx context.Context, id string) (*group.Student, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return s, nil
}

func (r *memStudents) ListByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	var out []*group.Student
	for _, s := range r.byID {
		if s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memStudents) ListUnassignedByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	return nil, nil
}

func (r *memStudents) SetTopic(ctx context.Context, studentID string, topicID *string) error {
	return nil
}

type memUsers struct{ byName map[string]*group.User }

func (r *memUsers) Create(ctx context.Context, u *group.User) error {
	if _, ok := r.byName[u.Username]; ok {
		return shared.ErrUserAlreadyExists
	}
	r.byName[u.Username] = u
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*group.User, error) {
	return nil, shared.ErrUserNotFound
}

func (r *memUsers) GetByUsername(ctx context.Context, username string) (*group.User, error) {
	u, ok := r.byName[username]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u, nil
}

type memSupervisors struct{ byName map[string]*topic.Supervisor }

func (r *memSupervisors) Create(ctx context.Context, s *topic.Supervisor) error {
	r.byName[s.FullName] = s
	return nil
}

func (r *memSupervisors) GetByFullName(ctx context.Context, fullName string) (*topic.Supervisor, error) {
	s, ok := r.byName[fullName]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *memSupervisors) List(ctx context.Context) ([]*topic.Supervisor, error) { return nil, nil }

type memWorkTypes struct{ byKey map[string]*topic.WorkType }

func (r *memWorkTypes) Create(ctx context.Context, wt *topic.WorkType) error {
	r.byKey[wt.Name+"|"+wt.Subject] = wt
	return nil
}

func (r *memWorkTypes) GetByID(ctx context.Context, id string) (*topic.WorkType, error) {
	return nil, shared.ErrWorkTypeNotFound
}

func (r *memWorkTypes) GetByNameAndSubject(ctx context.Context, name, subject string) (*topic.WorkType, error) {
	wt, ok := r.byKey[name+"|"+subject]
	if !ok {
		return nil, shared.ErrWorkTypeNotFound
	}
	return wt, nil
}

func (r *memWorkTypes) List(ctx context.Context) ([]*topic.WorkType, error) { return nil, nil }

type memTopics struct{ byID map[string]*topic.Topic }

func (r *memTopics) Create(ctx context.Context, t *topic.Topic) error {
	r.byID[t.ID] = t
	return nil
}

func (r *memTopics) GetByID(ctx context.Context, id string) (*topic.Topic, error) {
	return nil, shared.ErrTopicNotFound
}

func (r *memTopics) List(ctx context.Context, f topic.Filter) ([]*topic.Topic, error) {
	return nil, nil
}

func (r *memTopics) ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*topic.Topic, error) {
	return nil, nil
}

func (r *memTopics) UpdateAllocation(ctx context.Context, t *topic.Topic) error { return nil }

func (r *memTopics) MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error) {
	return false, nil
}

func newTestImporter() (*Importer, *memGroups, *memStudents, *memUsers, *memSupervisors, *memWorkTypes, *memTopics) {
	groups := &memGroups{byName: make(map[string]*group.Group)}
	students := &memStudents{byID: make(map[string]*group.Student)}
	users := &memUsers{byName: make(map[string]*group.User)}
	supervisors := &memSupervisors{byName: make(map[string]*topic.Supervisor)}
	workTypes := &memWorkTypes{byKey: make(map[string]*topic.WorkType)}
	topics := &memTopics{byID: make(map[string]*topic.Topic)}

	im := New(groups, students, users, supervisors, workTypes, topics, nil)
	return im, groups, students, users, supervisors, workTypes, topics
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestImportStudents(t *testing.T) {
	im, groups, students, _, _, _, _ := newTestImporter()

	rows := []StudentRow{
		{FullName: "Иванов Иван", Phone: "+7 700 111 22 33", GroupName: "ВТ-21", GroupCMK: "Информатика"},
		{FullName: "Петрова Анна", Phone: "+7 700 444 55 66", GroupName: "ВТ-21", GroupCMK: "Информатика"},
		{FullName: "Сидоров Олег", GroupName: "ВТ-22"},
	}

	stats, err := im.ImportStudents(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 0, stats.Skipped)

	// Группы созданы по пути.
	assert.Len(t, groups.byName, 2)
	assert.Len(t, students.byID, 3)
}

func TestImportStudents_Idempotent(t *testing.T) {
	im, _, students, _, _, _, _ := newTestImporter()

	rows := []StudentRow{
		{FullName: "Иванов Иван", GroupName: "ВТ-21"},
	}

	_, err := im.ImportStudents(context.Background(), rows)
	require.NoError(t, err)

	// Повторный импорт того же списка ничего не создаёт.
	stats, err := im.ImportStudents(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, students.byID, 1)
}

func TestImportStudents_SkipsBlankRows(t *testing.T) {
	im, _, students, _, _, _, _ := newTestImporter()

	stats, err := im.ImportStudents(context.Background(), []StudentRow{
		{FullName: "", GroupName: "ВТ-21"},
		{FullName: "Иванов Иван", GroupName: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 2, stats.Skipped)
	assert.Empty(t, students.byID)
}

func TestImportTopics(t *testing.T) {
	im, _, _, _, supervisors, workTypes, topics := newTestImporter()

	rows := []TopicRow{
		{Title: "Проектирование REST API", SupervisorName: "Ахметова Г.С.", WorkTypeName: "Курсовая", Subject: "Базы данных"},
		{Title: "Кеширование в веб-приложениях", SupervisorName: "Ахметова Г.С.", WorkTypeName: "Курсовая", Subject: "Базы данных"},
		{Title: "Сетевые протоколы", SupervisorName: "Ким В.А.", WorkTypeName: "Дипломная", Subject: "Сети"},
	}

	stats, err := im.ImportTopics(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Created)

	// Справочники дедуплицированы по естественным ключам.
	assert.Len(t, supervisors.byName, 2)
	assert.Len(t, workTypes.byKey, 2)

	// Каждая импортированная тема свободна.
	for _, tp := range topics.byID {
		assert.True(t, tp.IsFree())
	}
}

func TestSeedAccounts(t *testing.T) {
	im, _, _, users, _, _, _ := newTestImporter()

	accounts := []DefaultAccount{
		{Username: "admin", Password: "secret", Role: group.RoleAdmin},
		{Username: "headman-vt21", Password: "secret2", Role: group.RoleHeadman},
	}

	require.NoError(t, im.SeedAccounts(context.Background(), accounts))
	assert.Len(t, users.byName, 2)

	// Пароль хранится как bcrypt-хеш.
	admin := users.byName["admin"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("secret")))

	// Повторный запуск не трогает существующие аккаунты.
	require.NoError(t, im.SeedAccounts(context.Background(), accounts))
	assert.Len(t, users.byName, 2)
	assert.Equal(t, admin, users.byName["admin"])
}

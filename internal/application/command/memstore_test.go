package command

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/group"
	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// memStore - хранилище в памяти для тестов координатора. Begin
// сериализует транзакции мьютексом, Rollback восстанавливает снимок,
// сделанный в начале транзакции.
type memStore struct {
	mu           sync.Mutex
	topics       map[string]*topic.Topic
	reservations map[string]*reservation.Reservation
	students     map[string]*group.Student
}

func newMemStore() *memStore {
	return &memStore{
		topics:       make(map[string]*topic.Topic),
		reservations: make(map[string]*reservation.Reservation),
		students:     make(map[string]*group.Student),
	}
}

func (s *memStore) addTopic(t *topic.Topic) { s.topics[t.ID] = cloneTopic(t) }

func (s *memStore) addReservation(r *reservation.Reservation) {
	s.reservations[r.ID] = cloneReservation(r)
}

func (s *memStore) addStudent(st *group.Student) { s.students[st.ID] = cloneStudent(st) }

func (s *memStore) topicByID(id string) *topic.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTopic(s.topics[id])
}

func (s *memStore) studentByID(id string) *group.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStudent(s.students[id])
}

func (s *memStore) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// Begin implements allocation.UnitOfWorkFactory.
func (s *memStore) Begin(ctx context.Context) (allocation.UnitOfWork, error) {
	s.mu.Lock()
	u := &memUow{store: s}
	u.snapTopics = cloneTopicMap(s.topics)
	u.snapReservations = cloneReservationMap(s.reservations)
	u.snapStudents = cloneStudentMap(s.students)
	return u, nil
}

type memUow struct {
	store *memStore
	done  bool

	snapTopics       map[string]*topic.Topic
	snapReservations map[string]*reservation.Reservation
	snapStudents     map[string]*group.Student
}

func (u *memUow) Topics() topic.Repository             { return &memTopicRepo{u.store} }
func (u *memUow) Reservations() reservation.Repository { return &memReservationRepo{u.store} }
func (u *memUow) Students() group.StudentRepository    { return &memStudentRepo{u.store} }

func (u *memUow) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.mu.Unlock()
	return nil
}

func (u *memUow) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.store.topics = u.snapTopics
	u.store.reservations = u.snapReservations
	u.store.students = u.snapStudents
	u.store.mu.Unlock()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Repositories
// ─────────────────────────────────────────────────────────────────────────────

type memTopicRepo struct{ s *memStore }

func (r *memTopicRepo) Create(ctx context.Context, t *topic.Topic) error {
	r.s.topics[t.ID] = cloneTopic(t)
	return nil
}

func (r *memTopicRepo) GetByID(ctx context.Context, id string) (*topic.Topic, error) {
	t, ok := r.s.topics[id]
	if !ok {
		return nil, shared.ErrTopicNotFound
	}
	return cloneTopic(t), nil
}

func (r *memTopicRepo) List(ctx context.Context, f topic.Filter) ([]*topic.Topic, error) {
	var out []*topic.Topic
	for _, t := range r.s.topics {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.WorkTypeID != nil && t.WorkTypeID != *f.WorkTypeID {
			continue
		}
		if f.GroupID != nil && (t.GroupID == nil || *t.GroupID != *f.GroupID) {
			continue
		}
		out = append(out, cloneTopic(t))
	}
	sortTopics(out)
	return out, nil
}

func (r *memTopicRepo) ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*topic.Topic, error) {
	st := topic.StatusFree
	return r.List(ctx, topic.Filter{Status: &st, WorkTypeID: &workTypeID})
}

func (r *memTopicRepo) UpdateAllocation(ctx context.Context, t *topic.Topic) error {
	if _, ok := r.s.topics[t.ID]; !ok {
		return shared.ErrTopicNotFound
	}
	r.s.topics[t.ID] = cloneTopic(t)
	return nil
}

func (r *memTopicRepo) MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error) {
	t, ok := r.s.topics[topicID]
	if !ok || !t.IsFree() {
		return false, nil
	}
	if err := t.MarkReserved(groupID, userID, at); err != nil {
		return false, nil
	}
	return true, nil
}

type memReservationRepo struct{ s *memStore }

func (r *memReservationRepo) Create(ctx context.Context, res *reservation.Reservation, now time.Time) error {
	// Зеркало уникального ограничения по topic_id.
	for _, existing := range r.s.reservations {
		if existing.TopicID == res.TopicID {
			return shared.ErrReservationExists
		}
	}
	r.s.reservations[res.ID] = cloneReservation(res)
	return nil
}

func (r *memReservationRepo) FindByTopic(ctx context.Context, topicID string) (*reservation.Reservation, error) {
	for _, res := range r.s.reservations {
		if res.TopicID == topicID {
			return cloneReservation(res), nil
		}
	}
	return nil, shared.ErrReservationNotFound
}

func (r *memReservationRepo) FindByTopicAndUser(ctx context.Context, topicID, userID string) (*reservation.Reservation, error) {
	for _, res := range r.s.reservations {
		if res.TopicID == topicID && res.ReservedBy == userID {
			return cloneReservation(res), nil
		}
	}
	return nil, shared.ErrReservationNotFound
}

func (r *memReservationRepo) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range r.s.reservations {
		if res.ReservedBy == userID && res.IsActive(now) {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
	return out, nil
}

func (r *memReservationRepo) FindExpired(ctx context.Context, now time.Time) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, res := range r.s.reservations {
		if res.IsExpired(now) {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *memReservationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.reservations[id]; !ok {
		return shared.ErrReservationNotFound
	}
	delete(r.s.reservations, id)
	return nil
}

type memStudentRepo struct{ s *memStore }

func (r *memStudentRepo) Create(ctx context.Context, st *group.Student) error {
	r.s.students[st.ID] = cloneStudent(st)
	return nil
}

func (r *memStudentRepo) GetByID(ctx context.Context, id string) (*group.Student, error) {
	st, ok := r.s.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	return cloneStudent(st), nil
}

func (r *memStudentRepo) ListByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	var out []*group.Student
	for _, st := range r.s.students {
		if st.GroupID == groupID {
			out = append(out, cloneStudent(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memStudentRepo) ListUnassignedByGroup(ctx context.Context, groupID string) ([]*group.Student, error) {
	all, _ := r.ListByGroup(ctx, groupID)
	var out []*group.Student
	for _, st := range all {
		if !st.HasTopic() {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *memStudentRepo) SetTopic(ctx context.Context, studentID string, topicID *string) error {
	st, ok := r.s.students[studentID]
	if !ok {
		return shared.ErrStudentNotFound
	}
	if topicID == nil {
		st.TopicID = nil
		return nil
	}
	id := *topicID
	st.TopicID = &id
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Clone helpers
// ─────────────────────────────────────────────────────────────────────────────

func cloneTopic(t *topic.Topic) *topic.Topic {
	if t == nil {
		return nil
	}
	c := *t
	c.GroupID = cloneStrPtr(t.GroupID)
	c.StudentID = cloneStrPtr(t.StudentID)
	c.ReservedBy = cloneStrPtr(t.ReservedBy)
	if t.ReservedAt != nil {
		at := *t.ReservedAt
		c.ReservedAt = &at
	}
	return &c
}

func cloneReservation(r *reservation.Reservation) *reservation.Reservation {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func cloneStudent(st *group.Student) *group.Student {
	if st == nil {
		return nil
	}
	c := *st
	c.TopicID = cloneStrPtr(st.TopicID)
	return &c
}

func cloneStrPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTopicMap(m map[string]*topic.Topic) map[string]*topic.Topic {
	out := make(map[string]*topic.Topic, len(m))
	for k, v := range m {
		out[k] = cloneTopic(v)
	}
	return out
}

func cloneReservationMap(m map[string]*reservation.Reservation) map[string]*reservation.Reservation {
	out := make(map[string]*reservation.Reservation, len(m))
	for k, v := range m {
		out[k] = cloneReservation(v)
	}
	return out
}

func cloneStudentMap(m map[string]*group.Student) map[string]*group.Student {
	out := make(map[string]*group.Student, len(m))
	for k, v := range m {
		out[k] = cloneStudent(v)
	}
	return out
}

func sortTopics(ts []*topic.Topic) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}

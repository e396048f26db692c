package query

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temahub/topic-allocation-hub/internal/domain/reservation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeTopicRepo struct {
	topics map[string]*topic.Topic
	calls  int
}

func (r *fakeTopicRepo) Create(ctx context.Context, t *topic.Topic) error { return nil }

func (r *fakeTopicRepo) GetByID(ctx context.Context, id string) (*topic.Topic, error) {
	t, ok := r.topics[id]
	if !ok {
		return nil, shared.ErrTopicNotFound
	}
	return t, nil
}

func (r *fakeTopicRepo) List(ctx context.Context, f topic.Filter) ([]*topic.Topic, error) {
	r.calls++
	var out []*topic.Topic
	for _, t := range r.topics {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.WorkTypeID != nil && t.WorkTypeID != *f.WorkTypeID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTopicRepo) ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*topic.Topic, error) {
	st := topic.StatusFree
	return r.List(ctx, topic.Filter{Status: &st, WorkTypeID: &workTypeID})
}

func (r *fakeTopicRepo) UpdateAllocation(ctx context.Context, t *topic.Topic) error { return nil }

func (r *fakeTopicRepo) MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error) {
	return false, nil
}

type fakeTopicCache struct {
	entries map[string][]*topic.Topic
	sets    int
}

func cacheKey(f topic.Filter) string {
	key := ""
	if f.Status != nil {
		key += string(*f.Status)
	}
	key += "|"
	if f.WorkTypeID != nil {
		key += *f.WorkTypeID
	}
	key += "|"
	if f.GroupID != nil {
		key += *f.GroupID
	}
	return key
}

func (c *fakeTopicCache) GetTopics(ctx context.Context, f topic.Filter) ([]*topic.Topic, bool) {
	ts, ok := c.entries[cacheKey(f)]
	return ts, ok
}

func (c *fakeTopicCache) SetTopics(ctx context.Context, f topic.Filter, topics []*topic.Topic) {
	c.entries[cacheKey(f)] = topics
	c.sets++
}

type fakeLedger struct {
	holds []*reservation.Reservation
}

func (l *fakeLedger) Create(ctx context.Context, r *reservation.Reservation, now time.Time) error {
	return nil
}

func (l *fakeLedger) FindByTopic(ctx context.Context, topicID string) (*reservation.Reservation, error) {
	return nil, shared.ErrReservationNotFound
}

func (l *fakeLedger) FindByTopicAndUser(ctx context.Context, topicID, userID string) (*reservation.Reservation, error) {
	return nil, shared.ErrReservationNotFound
}

func (l *fakeLedger) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*reservation.Reservation, error) {
	var out []*reservation.Reservation
	for _, r := range l.holds {
		if r.ReservedBy == userID && r.IsActive(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *fakeLedger) FindExpired(ctx context.Context, now time.Time) ([]*reservation.Reservation, error) {
	return nil, nil
}

func (l *fakeLedger) Delete(ctx context.Context, id string) error { return nil }

func mustTopic(t *testing.T, id, title, workTypeID string) *topic.Topic {
	t.Helper()
	tp, err := topic.NewTopic(id, title, "sup1", workTypeID)
	require.NoError(t, err)
	return tp
}

// ─────────────────────────────────────────────────────────────────────────────
// ListTopics
// ─────────────────────────────────────────────────────────────────────────────

func TestListTopics_NoFilters(t *testing.T) {
	repo := &fakeTopicRepo{topics: map[string]*topic.Topic{
		"t1": mustTopic(t, "t1", "Тема 1", "wt1"),
		"t2": mustTopic(t, "t2", "Тема 2", "wt2"),
	}}

	h := NewListTopicsHandler(repo, nil)
	views, err := h.Handle(context.Background(), ListTopicsQuery{})
	require.NoError(t, err)
	assert.Len(t, views, 2)
	assert.Equal(t, "t1", views[0].ID)
	assert.Equal(t, "free", views[0].Status)
}

func TestListTopics_StatusFilter(t *testing.T) {
	reserved := mustTopic(t, "t2", "Тема 2", "wt1")
	require.NoError(t, reserved.MarkReserved("g1", "u1", time.Now().UTC()))

	repo := &fakeTopicRepo{topics: map[string]*topic.Topic{
		"t1": mustTopic(t, "t1", "Тема 1", "wt1"),
		"t2": reserved,
	}}

	st := topic.StatusReserved
	h := NewListTopicsHandler(repo, nil)
	views, err := h.Handle(context.Background(), ListTopicsQuery{Status: &st})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "t2", views[0].ID)
	assert.Equal(t, "g1", *views[0].GroupID)
	assert.NotNil(t, views[0].ReservedAt)
}

func TestListTopics_CacheAside(t *testing.T) {
	repo := &fakeTopicRepo{topics: map[string]*topic.Topic{
		"t1": mustTopic(t, "t1", "Тема 1", "wt1"),
	}}
	cache := &fakeTopicCache{entries: make(map[string][]*topic.Topic)}

	h := NewListTopicsHandler(repo, cache)

	// Первый запрос - промах, идём в репозиторий и пишем в кеш.
	_, err := h.Handle(context.Background(), ListTopicsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)

	// Второй запрос того же фильтра обслуживается кешем.
	views, err := h.Handle(context.Background(), ListTopicsQuery{})
	require.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, 1, repo.calls)

	// Другой фильтр - другой ключ, снова промах.
	st := topic.StatusFree
	_, err = h.Handle(context.Background(), ListTopicsQuery{Status: &st})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetActiveReservations
// ─────────────────────────────────────────────────────────────────────────────

func TestGetActiveReservations(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	active, _ := reservation.New("r1", "t1", "g1", "u1", now.Add(-10*time.Minute))
	expired, _ := reservation.New("r2", "t2", "g1", "u1", now.Add(-2*time.Hour))
	foreign, _ := reservation.New("r3", "t3", "g2", "u2", now)

	ledger := &fakeLedger{holds: []*reservation.Reservation{active, expired, foreign}}
	repo := &fakeTopicRepo{topics: map[string]*topic.Topic{
		"t1": mustTopic(t, "t1", "Проектирование распределённого кеша", "wt1"),
	}}

	h := NewGetActiveReservationsHandler(ledger, repo)
	views, err := h.Handle(context.Background(), GetActiveReservationsQuery{UserID: "u1", Now: now})
	require.NoError(t, err)

	// Истёкшие и чужие резервации невидимы.
	require.Len(t, views, 1)
	assert.Equal(t, "r1", views[0].ReservationID)
	assert.Equal(t, "t1", views[0].TopicID)
	assert.Equal(t, 20, views[0].MinutesLeft)
	assert.Equal(t, "Проектирование распределённого кеша", views[0].TopicTitle)
}

func TestGetActiveReservations_VanishedTopic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	hold, _ := reservation.New("r1", "t-gone", "g1", "u1", now)

	ledger := &fakeLedger{holds: []*reservation.Reservation{hold}}
	repo := &fakeTopicRepo{topics: map[string]*topic.Topic{}}

	h := NewGetActiveReservationsHandler(ledger, repo)
	views, err := h.Handle(context.Background(), GetActiveReservationsQuery{UserID: "u1", Now: now})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].TopicTitle)
}

func TestGetActiveReservations_RequiresUser(t *testing.T) {
	h := NewGetActiveReservationsHandler(&fakeLedger{}, &fakeTopicRepo{})
	_, err := h.Handle(context.Background(), GetActiveReservationsQuery{})
	assert.Error(t, err)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 50))

	long := "Исследование методов балансировки нагрузки в микросервисных архитектурах"
	got := truncateTitle(long, 50)
	assert.Equal(t, string([]rune(long)[:50])+"...", got)
	assert.Len(t, []rune(got), 53)
}

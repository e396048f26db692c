package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

func TestDistributeTopics_Success(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		store.addTopic(newFreeTopic(t, id))
	}
	for _, id := range []string{"st1", "st2", "st3"} {
		store.addStudent(newStudent(t, id, "g1"))
	}

	h := NewDistributeTopicsHandler(store, nil)
	h.shuffle = func(n int, swap func(i, j int)) {} // детерминированный порядок

	result, err := h.Handle(context.Background(), DistributeTopicsCommand{
		GroupID: "g1", WorkTypeID: "wt1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Assigned)
	assert.Len(t, result.Pairs, 3)

	seen := make(map[string]bool)
	for _, p := range result.Pairs {
		// Каждая тема используется не более одного раза.
		assert.False(t, seen[p.TopicID])
		seen[p.TopicID] = true

		tp := store.topicByID(p.TopicID)
		assert.True(t, tp.IsAssigned())
		assert.Equal(t, p.StudentID, *tp.StudentID)
		assert.Equal(t, "g1", *tp.GroupID)

		st := store.studentByID(p.StudentID)
		require.NotNil(t, st.TopicID)
		assert.Equal(t, p.TopicID, *st.TopicID)
	}

	// Лишние темы остались свободными.
	free := 0
	for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		if store.topicByID(id).IsFree() {
			free++
		}
	}
	assert.Equal(t, 2, free)
}

func TestDistributeTopics_NotEnoughTopics(t *testing.T) {
	store := newMemStore()
	store.addTopic(newFreeTopic(t, "t1"))
	store.addTopic(newFreeTopic(t, "t2"))
	for _, id := range []string{"st1", "st2", "st3"} {
		store.addStudent(newStudent(t, id, "g1"))
	}

	h := NewDistributeTopicsHandler(store, nil)
	_, err := h.Handle(context.Background(), DistributeTopicsCommand{
		GroupID: "g1", WorkTypeID: "wt1",
	})
	assert.ErrorIs(t, err, shared.ErrNotEnoughTopics)
	assert.True(t, shared.IsInsufficient(err))

	// Всё или ничего: ни одна тема и ни один студент не тронуты.
	assert.True(t, store.topicByID("t1").IsFree())
	assert.True(t, store.topicByID("t2").IsFree())
	for _, id := range []string{"st1", "st2", "st3"} {
		assert.Nil(t, store.studentByID(id).TopicID)
	}
}

func TestDistributeTopics_SkipsReservedAndAssigned(t *testing.T) {
	store := newMemStore()
	store.addTopic(newFreeTopic(t, "t1"))

	reserved := newFreeTopic(t, "t2")
	require.NoError(t, reserved.MarkReserved("g2", "u2", time.Now().UTC()))
	store.addTopic(reserved)

	assigned := newFreeTopic(t, "t3")
	require.NoError(t, assigned.MarkAssigned("st9", "g2"))
	store.addTopic(assigned)

	store.addStudent(newStudent(t, "st1", "g1"))

	h := NewDistributeTopicsHandler(store, nil)
	h.shuffle = func(n int, swap func(i, j int)) {}

	result, err := h.Handle(context.Background(), DistributeTopicsCommand{
		GroupID: "g1", WorkTypeID: "wt1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, "t1", result.Pairs[0].TopicID)

	// Зарезервированные и закреплённые темы пул не покидали.
	assert.True(t, store.topicByID("t2").IsReserved())
	assert.True(t, store.topicByID("t3").IsAssigned())
}

func TestDistributeTopics_SkipsAssignedStudents(t *testing.T) {
	store := newMemStore()
	store.addTopic(newFreeTopic(t, "t1"))

	st1 := newStudent(t, "st1", "g1")
	done := "t-done"
	st1.TopicID = &done
	store.addStudent(st1)
	store.addStudent(newStudent(t, "st2", "g1"))

	h := NewDistributeTopicsHandler(store, nil)
	h.shuffle = func(n int, swap func(i, j int)) {}

	result, err := h.Handle(context.Background(), DistributeTopicsCommand{
		GroupID: "g1", WorkTypeID: "wt1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Assigned)
	assert.Equal(t, "st2", result.Pairs[0].StudentID)

	// Тема студента с уже назначенной работой не изменилась.
	assert.Equal(t, "t-done", *store.studentByID("st1").TopicID)
}

func TestDistributeTopics_EmptyGroup(t *testing.T) {
	store := newMemStore()
	store.addTopic(newFreeTopic(t, "t1"))

	h := NewDistributeTopicsHandler(store, nil)
	result, err := h.Handle(context.Background(), DistributeTopicsCommand{
		GroupID: "g-empty", WorkTypeID: "wt1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assigned)
	assert.True(t, store.topicByID("t1").IsFree())
}

func TestDistributeTopics_Validation(t *testing.T) {
	h := NewDistributeTopicsHandler(newMemStore(), nil)

	_, err := h.Handle(context.Background(), DistributeTopicsCommand{WorkTypeID: "wt1"})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), DistributeTopicsCommand{GroupID: "g1"})
	assert.Error(t, err)
}

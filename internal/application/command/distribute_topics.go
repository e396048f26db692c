package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/temahub/topic-allocation-hub/internal/domain/allocation"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISTRIBUTE TOPICS COMMAND
// Pairs every unassigned student of a group with a random free topic of
// the requested work type. This path bypasses the reservation ledger
// entirely: reservations are scoped to specific topics, never to
// work-type pools, so no conflict with in-flight holds is possible.
// ══════════════════════════════════════════════════════════════════════════════

// DistributeTopicsCommand contains the data for random distribution.
type DistributeTopicsCommand struct {
	// GroupID is the group whose unassigned students receive topics.
	GroupID string

	// WorkTypeID selects the pool of free topics.
	WorkTypeID string
}

// Validate validates the command.
func (c DistributeTopicsCommand) Validate() error {
	if c.GroupID == "" {
		return errors.New("distribute_topics: group_id is required")
	}
	if c.WorkTypeID == "" {
		return errors.New("distribute_topics: work_type_id is required")
	}
	return nil
}

// AssignedPair records one student↔topic pairing produced by distribution.
type AssignedPair struct {
	StudentID string
	TopicID   string
}

// DistributeTopicsResult contains the result of a distribution run.
type DistributeTopicsResult struct {
	// Assigned is the number of pairings committed.
	Assigned int

	// Pairs lists the committed pairings.
	Pairs []AssignedPair
}

// DistributeTopicsHandler handles the DistributeTopicsCommand.
type DistributeTopicsHandler struct {
	uow   allocation.UnitOfWorkFactory
	cache TopicCacheInvalidator

	// shuffle permutes n elements; each invocation draws fresh
	// randomness. Overridable in tests.
	shuffle func(n int, swap func(i, j int))
}

// NewDistributeTopicsHandler creates a new DistributeTopicsHandler.
func NewDistributeTopicsHandler(uow allocation.UnitOfWorkFactory, cache TopicCacheInvalidator) *DistributeTopicsHandler {
	return &DistributeTopicsHandler{
		uow:     uow,
		cache:   cache,
		shuffle: rand.Shuffle,
	}
}

// Handle executes the distribute topics command. Either every pairing
// commits or none does; on Insufficient no topic or student is mutated.
func (h *DistributeTopicsHandler) Handle(ctx context.Context, cmd DistributeTopicsCommand) (*DistributeTopicsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("distribute_topics: validation failed: %w", err)
	}

	uow, err := h.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = uow.Rollback(ctx) }()

	students, err := uow.Students().ListUnassignedByGroup(ctx, cmd.GroupID)
	if err != nil {
		return nil, err
	}
	topics, err := uow.Topics().ListFreeByWorkType(ctx, cmd.WorkTypeID)
	if err != nil {
		return nil, err
	}

	if len(students) > len(topics) {
		return nil, shared.ErrNotEnoughTopics
	}

	// Two independent uniform permutations paired positionally.
	h.shuffle(len(students), func(i, j int) {
		students[i], students[j] = students[j], students[i]
	})
	h.shuffle(len(topics), func(i, j int) {
		topics[i], topics[j] = topics[j], topics[i]
	})

	result := &DistributeTopicsResult{}
	for i, st := range students {
		t := topics[i]
		if err := t.MarkAssigned(st.ID, cmd.GroupID); err != nil {
			return nil, err
		}
		if err := uow.Topics().UpdateAllocation(ctx, t); err != nil {
			return nil, err
		}
		if err := uow.Students().SetTopic(ctx, st.ID, &t.ID); err != nil {
			return nil, err
		}
		result.Pairs = append(result.Pairs, AssignedPair{StudentID: st.ID, TopicID: t.ID})
	}
	result.Assigned = len(result.Pairs)

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	if h.cache != nil && result.Assigned > 0 {
		h.cache.InvalidateTopics(ctx)
	}
	return result, nil
}

// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST TOPICS QUERY
// Dashboard-facing topic listing with optional status/work-type/group
// filters. Reads go through the cache when one is configured; every
// coordinator mutation and sweeper reclaim invalidates it.
// ══════════════════════════════════════════════════════════════════════════════

// TopicListCache caches topic listings per filter. Implemented by the
// redis topic cache; may be nil.
type TopicListCache interface {
	// GetTopics returns the cached listing for the filter, or false on miss.
	GetTopics(ctx context.Context, f topic.Filter) ([]*topic.Topic, bool)

	// SetTopics stores a listing for the filter.
	SetTopics(ctx context.Context, f topic.Filter, topics []*topic.Topic)
}

// ListTopicsQuery contains listing filters.
type ListTopicsQuery struct {
	// Status filters by topic status (nil - all).
	Status *topic.Status

	// WorkTypeID filters by work type (nil - all).
	WorkTypeID *string

	// GroupID filters by owning group (nil - all).
	GroupID *string
}

// TopicView is the read model of a topic for dashboards.
type TopicView struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	SupervisorID string     `json:"supervisor_id"`
	WorkTypeID   string     `json:"work_type_id"`
	GroupID      *string    `json:"group_id,omitempty"`
	StudentID    *string    `json:"student_id,omitempty"`
	ReservedAt   *time.Time `json:"reserved_at,omitempty"`
}

// ListTopicsHandler handles the ListTopicsQuery.
type ListTopicsHandler struct {
	topics topic.Repository
	cache  TopicListCache
}

// NewListTopicsHandler creates a new ListTopicsHandler.
func NewListTopicsHandler(topics topic.Repository, cache TopicListCache) *ListTopicsHandler {
	return &ListTopicsHandler{topics: topics, cache: cache}
}

// Handle executes the list topics query.
func (h *ListTopicsHandler) Handle(ctx context.Context, q ListTopicsQuery) ([]TopicView, error) {
	filter := topic.Filter{
		Status:     q.Status,
		WorkTypeID: q.WorkTypeID,
		GroupID:    q.GroupID,
	}

	var items []*topic.Topic
	if h.cache != nil {
		if cached, ok := h.cache.GetTopics(ctx, filter); ok {
			items = cached
		}
	}

	if items == nil {
		var err error
		items, err = h.topics.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		if h.cache != nil {
			h.cache.SetTopics(ctx, filter, items)
		}
	}

	views := make([]TopicView, 0, len(items))
	for _, t := range items {
		views = append(views, TopicView{
			ID:           t.ID,
			Title:        t.Title,
			Status:       string(t.Status),
			SupervisorID: t.SupervisorID,
			WorkTypeID:   t.WorkTypeID,
			GroupID:      t.GroupID,
			StudentID:    t.StudentID,
			ReservedAt:   t.ReservedAt,
		})
	}
	return views, nil
}

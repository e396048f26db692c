package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC LIST CACHE
// ══════════════════════════════════════════════════════════════════════════════

// TopicCache caches topic listings per filter. It implements the
// TopicListCache and TopicCacheInvalidator ports of the application
// layer. Cache failures degrade to database reads and are only logged.
type TopicCache struct {
	cache  *Cache
	logger *slog.Logger
}

// NewTopicCache creates a new TopicCache.
func NewTopicCache(cache *Cache, logger *slog.Logger) *TopicCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicCache{cache: cache, logger: logger}
}

// GetTopics returns the cached listing for the filter, or false on miss.
func (c *TopicCache) GetTopics(ctx context.Context, f topic.Filter) ([]*topic.Topic, bool) {
	var topics []*topic.Topic
	err := c.cache.Get(ctx, topicListKey(f), &topics)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("topic cache read failed", "error", err)
		}
		return nil, false
	}
	return topics, true
}

// SetTopics stores a listing for the filter.
func (c *TopicCache) SetTopics(ctx context.Context, f topic.Filter, topics []*topic.Topic) {
	if err := c.cache.Set(ctx, topicListKey(f), topics, TTLTopicList); err != nil {
		c.logger.Warn("topic cache write failed", "error", err)
	}
}

// InvalidateTopics drops every cached listing. Called after any
// mutation that changes a topic status.
func (c *TopicCache) InvalidateTopics(ctx context.Context) {
	if err := c.cache.DeleteByPattern(ctx, PrefixTopics+"*"); err != nil {
		c.logger.Warn("topic cache invalidation failed", "error", err)
	}
}

// topicListKey derives a stable cache key from the filter.
func topicListKey(f topic.Filter) string {
	status, workType, group := "all", "all", "all"
	if f.Status != nil {
		status = string(*f.Status)
	}
	if f.WorkTypeID != nil {
		workType = *f.WorkTypeID
	}
	if f.GroupID != nil {
		group = *f.GroupID
	}
	return PrefixTopics + status + ":" + workType + ":" + group
}

// Package refdata provides a read-through accessor for the Category,
// Priority and Status reference sets. The accessor is injected where
// needed; there is no process-wide registry. Redis is an optional cache
// layer: a miss or an unreachable cache falls back to storage.
package refdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Lookup resolves reference rows by id or name.
type Lookup struct {
	categories repository.CategoryRepository
	priorities repository.PriorityRepository
	statuses   repository.StatusRepository
	cache      *redis.Client
	ttl        time.Duration
}

// NewLookup constructs the accessor. cache may be nil to disable caching.
func NewLookup(
	categories repository.CategoryRepository,
	priorities repository.PriorityRepository,
	statuses repository.StatusRepository,
	cache *redis.Client,
	ttl time.Duration,
) *Lookup {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lookup{
		categories: categories,
		priorities: priorities,
		statuses:   statuses,
		cache:      cache,
		ttl:        ttl,
	}
}

// Category resolves a category row by id.
func (l *Lookup) Category(ctx context.Context, id string) (*domain.Category, error) {
	var category domain.Category
	if l.cacheGet(ctx, "refdata:category:"+id, &category) {
		return &category, nil
	}
	found, err := l.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cacheSet(ctx, "refdata:category:"+id, found)
	return found, nil
}

// Priority resolves a priority row by id.
func (l *Lookup) Priority(ctx context.Context, id string) (*domain.Priority, error) {
	var priority domain.Priority
	if l.cacheGet(ctx, "refdata:priority:"+id, &priority) {
		return &priority, nil
	}
	found, err := l.priorities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cacheSet(ctx, "refdata:priority:"+id, found)
	return found, nil
}

// Status resolves a status row by id.
func (l *Lookup) Status(ctx context.Context, id string) (*domain.Status, error) {
	var status domain.Status
	if l.cacheGet(ctx, "refdata:status:"+id, &status) {
		return &status, nil
	}
	found, err := l.statuses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l.cacheSet(ctx, "refdata:status:"+id, found)
	return found, nil
}

// StatusByName resolves a status row by its canonical name.
func (l *Lookup) StatusByName(ctx context.Context, name string) (*domain.Status, error) {
	var status domain.Status
	if l.cacheGet(ctx, "refdata:status:name:"+name, &status) {
		return &status, nil
	}
	found, err := l.statuses.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	l.cacheSet(ctx, "refdata:status:name:"+name, found)
	return found, nil
}

func (l *Lookup) cacheGet(ctx context.Context, key string, dest any) bool {
	if l.cache == nil {
		return false
	}
	raw, err := l.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (l *Lookup) cacheSet(ctx context.Context, key string, value any) {
	if l.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = l.cache.Set(ctx, key, raw, l.ttl).Err()
}

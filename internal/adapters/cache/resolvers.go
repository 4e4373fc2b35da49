package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"eventcatalog/internal/domain"
)

type cachedUserDirectory struct {
	next   domain.UserDirectory
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewUserDirectory wraps next with a TTL cache keyed per user id.
func NewUserDirectory(next domain.UserDirectory, store Store, ttl time.Duration, logger *slog.Logger) domain.UserDirectory {
	return &cachedUserDirectory{next: next, store: store, ttl: ttl, logger: logger}
}

func (d *cachedUserDirectory) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	out := make(map[int64]*domain.User, len(ids))
	var misses []int64
	for _, id := range ids {
		u := &domain.User{}
		if lookup(ctx, d.store, userKey(id), u, d.logger) {
			out[id] = u
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}
	fetched, err := d.next.ResolveMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, u := range fetched {
		out[id] = u
		save(ctx, d.store, userKey(id), u, d.ttl, d.logger)
	}
	return out, nil
}

func (d *cachedUserDirectory) ResolveOne(ctx context.Context, id int64) (*domain.User, error) {
	u := &domain.User{}
	if lookup(ctx, d.store, userKey(id), u, d.logger) {
		return u, nil
	}
	u, err := d.next.ResolveOne(ctx, id)
	if err != nil {
		return nil, err
	}
	save(ctx, d.store, userKey(id), u, d.ttl, d.logger)
	return u, nil
}

type cachedCategoryCatalog struct {
	next   domain.CategoryCatalog
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCategoryCatalog wraps next with a TTL cache keyed per category id.
func NewCategoryCatalog(next domain.CategoryCatalog, store Store, ttl time.Duration, logger *slog.Logger) domain.CategoryCatalog {
	return &cachedCategoryCatalog{next: next, store: store, ttl: ttl, logger: logger}
}

func (d *cachedCategoryCatalog) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.Category, error) {
	out := make(map[int64]*domain.Category, len(ids))
	var misses []int64
	for _, id := range ids {
		c := &domain.Category{}
		if lookup(ctx, d.store, categoryKey(id), c, d.logger) {
			out[id] = c
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}
	fetched, err := d.next.ResolveMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, c := range fetched {
		out[id] = c
		save(ctx, d.store, categoryKey(id), c, d.ttl, d.logger)
	}
	return out, nil
}

func (d *cachedCategoryCatalog) ResolveOne(ctx context.Context, id int64) (*domain.Category, error) {
	c := &domain.Category{}
	if lookup(ctx, d.store, categoryKey(id), c, d.logger) {
		return c, nil
	}
	c, err := d.next.ResolveOne(ctx, id)
	if err != nil {
		return nil, err
	}
	save(ctx, d.store, categoryKey(id), c, d.ttl, d.logger)
	return c, nil
}

func userKey(id int64) string     { return fmt.Sprintf("user:%d", id) }
func categoryKey(id int64) string { return fmt.Sprintf("category:%d", id) }

// lookup reports whether key held a value that decoded into dest. Store and
// decode failures count as misses.
func lookup(ctx context.Context, store Store, key string, dest any, logger *slog.Logger) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("resolver cache read failed", "key", key, "err", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Warn("resolver cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func save(ctx context.Context, store Store, key string, val any, ttl time.Duration, logger *slog.Logger) {
	raw, err := json.Marshal(val)
	if err != nil {
		logger.Warn("resolver cache encode failed", "key", key, "err", err)
		return
	}
	if err := store.Set(ctx, key, raw, ttl); err != nil {
		logger.Warn("resolver cache write failed", "key", key, "err", err)
	}
}

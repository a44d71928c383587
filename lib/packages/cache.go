// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"container/list"
	"context"
	"log/slog"
	"sync"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/objects"
)

// DefaultCacheSize is the package cache capacity when CacheConfig
// leaves Size zero.
const DefaultCacheSize = 1024

// CacheConfig holds the parameters for creating a package cache.
type CacheConfig struct {
	// Store serves cache misses and version checks. Required.
	Store Store

	// Size is the maximum number of cached packages. Defaults to
	// DefaultCacheSize.
	Size int

	// Logger receives one Debug line per refetch decision. If nil,
	// a no-op logger is used.
	Logger *slog.Logger
}

// Cache is a bounded LRU of materialized packages keyed by storage
// id, wrapping a Store. It is safe for any number of concurrent
// callers.
//
// The internal lock guards only the map and recency list and is
// never held across store I/O. The miss path is optimistic: several
// callers may fetch the same cold id concurrently, but commit
// re-checks the cache state after the fetch and keeps exactly one
// winner, ordered by version — for a fixed id the cache never
// exposes a package older than one it has already exposed.
type Cache struct {
	store  Store
	logger *slog.Logger

	mu       sync.Mutex
	entries  map[addr.Address]*list.Element
	recency  *list.List // front is most recently used
	capacity int
}

// cacheEntry is the recency list's element value.
type cacheEntry struct {
	id  addr.Address
	pkg *Package
}

// NewCache creates a package cache over the given store.
func NewCache(cfg CacheConfig) *Cache {
	size := cfg.Size
	if size <= 0 {
		size = DefaultCacheSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		store:    cfg.Store,
		logger:   logger,
		entries:  make(map[addr.Address]*list.Element, size),
		recency:  list.New(),
		capacity: size,
	}
}

// Package returns the package at id, from cache when possible.
//
// Non-system packages are immutable for their storage id, so a hit
// is returned as-is. For system packages the store's current version
// is checked first (an I/O call, outside the lock); a stale cached
// package triggers a transparent refetch. The returned handle is
// shared and immutable — it stays valid even if the cache evicts or
// replaces the entry afterwards.
func (c *Cache) Package(ctx context.Context, id addr.Address) (*Package, error) {
	candidate := c.lookup(id)

	if candidate != nil {
		if !addr.IsSystem(id) {
			return candidate, nil
		}
		current, err := c.store.Version(ctx, id)
		if err != nil {
			return nil, err
		}
		if current <= candidate.Version {
			return candidate, nil
		}
		c.logger.Debug("system package is stale, refetching",
			"id", id.Short(),
			"cached_version", candidate.Version,
			"current_version", current,
		)
	}

	fetched, err := c.store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.commit(id, fetched), nil
}

// UpdateStore forwards an observed object to the underlying store.
// The in-memory cache is not touched: a non-system package is
// immutable anyway, and a stale system package corrects itself on
// the next Package call via the version check.
func (c *Cache) UpdateStore(ctx context.Context, object *objects.Object) error {
	return c.store.Update(ctx, object)
}

// lookup returns the cached package for id and promotes its
// recency, or nil. Lock held only for the map and list operations.
func (c *Cache) lookup(id addr.Address) *Package {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.recency.MoveToFront(element)
	return element.Value.(*cacheEntry).pkg
}

// commit resolves the post-fetch race and returns the package every
// caller should agree on. If the cache holds an equal-or-newer
// package for id (installed by a concurrent caller), the fresh fetch
// is discarded in its favor; otherwise the fresh package replaces
// whatever is cached.
func (c *Cache) commit(id addr.Address, fetched *Package) *Package {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[id]; ok {
		entry := element.Value.(*cacheEntry)
		if fetched.Version <= entry.pkg.Version {
			c.recency.MoveToFront(element)
			return entry.pkg
		}
		entry.pkg = fetched
		c.recency.MoveToFront(element)
		return fetched
	}

	c.entries[id] = c.recency.PushFront(&cacheEntry{id: id, pkg: fetched})
	for c.recency.Len() > c.capacity {
		oldest := c.recency.Back()
		c.recency.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
	}
	return fetched
}

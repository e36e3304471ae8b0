// Package cache layers an in-process LRU in front of the blob store so hot
// match payloads skip both S3 and the Riot API.
package cache

import (
	"context"
	"fmt"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rewindlabs/rewind/internal/blob"
)

// FetchFunc loads a value from origin when both cache layers miss
type FetchFunc func(ctx context.Context) ([]byte, error)

// ReadThrough is a two-level read-through cache: LRU, then blob store,
// then origin. Only successful origin fetches are written back.
type ReadThrough struct {
	local *lru.Cache[string, []byte]
	store blob.Store
}

// NewReadThrough creates a read-through cache with the given LRU capacity
func NewReadThrough(store blob.Store, size int) (*ReadThrough, error) {
	local, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &ReadThrough{local: local, store: store}, nil
}

// Get returns the cached value for key, fetching and storing it on miss
func (c *ReadThrough) Get(ctx context.Context, key string, fetch FetchFunc) ([]byte, error) {
	if v, ok := c.local.Get(key); ok {
		return v, nil
	}

	v, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache read for %s failed: %w", key, err)
	}
	if found {
		c.local.Add(key, v)
		return v, nil
	}

	v, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(ctx, key, v); err != nil {
		// The value is good even if the write-back failed; the next
		// miss will fetch again.
		log.Printf("[Cache] write-back for %s failed: %v", key, err)
	}
	c.local.Add(key, v)

	return v, nil
}

// Peek checks both layers without fetching from origin
func (c *ReadThrough) Peek(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.local.Get(key); ok {
		return v, true, nil
	}
	return c.store.Get(ctx, key)
}

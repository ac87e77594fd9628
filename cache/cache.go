// Package cache keeps parsed resource bundles and binary resources between
// lookups, so repeated injections for the same locale do not hit the modules.
package cache

import (
	"context"
	"fmt"
	"time"
)

// RawCache stores opaque values by key. Implementations must be safe for
// concurrent use.
type RawCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Flush(ctx context.Context) error
	Close() error
}

// Cache is a typed view of a RawCache.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Flush empties the underlying raw cache, other namespaces included.
	Flush(ctx context.Context) error
}

// Namespaced stores values of type V under keys prefixed with its namespace,
// so several namespaces can share one raw cache.
type Namespaced[V any] struct {
	raw       RawCache
	namespace string
}

// New returns a typed cache storing values in raw under namespace. Byte
// slices and strings are stored as is, other values as JSON.
func New[V any](raw RawCache, namespace string) *Namespaced[V] {
	return &Namespaced[V]{raw: raw, namespace: namespace}
}

func (n *Namespaced[V]) key(key string) string {
	if n.namespace == "" {
		return key
	}
	return n.namespace + ":" + key
}

func (n *Namespaced[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var value V
	data, found, err := n.raw.Get(ctx, n.key(key))
	if err != nil || !found {
		return value, found, err
	}
	if err = unmarshal(data, &value); err != nil {
		var zero V
		return zero, false, fmt.Errorf("cache: decode %s: %w", n.key(key), err)
	}
	return value, true, nil
}

func (n *Namespaced[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", n.key(key), err)
	}
	return n.raw.Set(ctx, n.key(key), data, ttl)
}

func (n *Namespaced[V]) Delete(ctx context.Context, key string) error {
	return n.raw.Delete(ctx, n.key(key))
}

func (n *Namespaced[V]) Flush(ctx context.Context) error {
	return n.raw.Flush(ctx)
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go caches rendered category tree responses in Valkey. The decorated
// hierarchy touches every row plus the component counts, so the encoded
// JSON is kept until the next catalog mutation or the TTL, whichever
// comes first.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// treeKeyPrefix is the Valkey key prefix for cached tree views.
	treeKeyPrefix = "tree:"

	// genKey holds the current tree generation. Views are stored under
	// tree:<generation>:<view>, and Invalidate bumps the generation.
	genKey = treeKeyPrefix + "gen"

	// DefaultTreeTTL is how long a cached tree view lives without mutations.
	DefaultTreeTTL = 5 * time.Minute
)

// Cache keys for the tree views.
const (
	KeyHierarchy = "hierarchy"
	KeyFlat      = "flat"
)

// errStaleGeneration aborts a Set whose generation was bumped meanwhile.
var errStaleGeneration = errors.New("tree generation changed")

// TreeCache stores encoded tree views in Valkey. Every method degrades to a
// miss or a no-op when Valkey fails; the caller then reads the store.
//
// A reader takes the generation before it loads the tree and passes it to
// Set. A view built from rows read before an Invalidate is therefore never
// stored under the live generation.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTreeCache creates a tree cache backed by the given Valkey client.
func NewTreeCache(client *redis.Client, ttl time.Duration) *TreeCache {
	if ttl <= 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, ttl: ttl}
}

func viewKey(gen int64, key string) string {
	return treeKeyPrefix + strconv.FormatInt(gen, 10) + ":" + key
}

// Generation returns the current tree generation. ok is false when Valkey
// cannot be reached, in which case nothing should be cached.
func (tc *TreeCache) Generation(ctx context.Context) (int64, bool) {
	gen, err := tc.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("tree cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// Get returns the payload cached for key in generation gen.
func (tc *TreeCache) Get(ctx context.Context, gen int64, key string) ([]byte, bool) {
	val, err := tc.client.Get(ctx, viewKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("tree cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("tree cache hit", "key", key, "generation", gen)
	return val, true
}

// Set stores payload under key with the configured TTL, but only while gen
// is still the current generation.
func (tc *TreeCache) Set(ctx context.Context, gen int64, key string, payload []byte) {
	err := tc.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, viewKey(gen, key), payload, tc.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		slog.Debug("tree cache set skipped", "key", key, "generation", gen)
	default:
		slog.Warn("tree cache set error", "key", key, "error", err)
	}
}

// Invalidate starts a new generation and removes every cached tree view.
// Any mutation can change the shape or the counts of the whole tree, so
// nothing is kept.
func (tc *TreeCache) Invalidate(ctx context.Context) {
	gen, err := tc.client.Incr(ctx, genKey).Result()
	if err != nil {
		slog.Warn("tree cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := tc.client.Scan(ctx, cursor, treeKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("tree cache scan error", "error", err)
			return
		}
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == genKey })
		if len(keys) > 0 {
			if err := tc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("tree cache delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("tree cache invalidated", "generation", gen, "deleted", deleted)
}

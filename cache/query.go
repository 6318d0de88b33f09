package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tabitha-Home/THMS-CLIENT/shared"
	"github.com/Tabitha-Home/THMS-CLIENT/transport"

	"golang.org/x/sync/singleflight"
)

const (
	// bounded retry for idempotent reads only; writes are never retried
	retryAttempts = 3
	retryBackoff  = 250 * time.Millisecond
)

// Key identifies one cached query: the collection it reads and a
// fingerprint of its parameters.
type Key struct {
	Collection string
	Params     string
}

func (k Key) String() string {
	return k.Collection + "?" + k.Params
}

// Fingerprint folds a parameter map into a stable cache key segment.
func Fingerprint(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	return strings.Join(pairs, "&")
}

// Queries caches read results keyed by query parameters, collapses
// concurrent identical fetches into one backend call and retries reads a
// bounded number of times on server or network failures. Mutations
// invalidate by collection so stale pages cannot be served afterwards.
type Queries struct {
	Logger *shared.Logger `inject:""`

	mutex   sync.RWMutex
	entries map[string]interface{}
	group   singleflight.Group
}

// Get returns the cached value for the key, or runs fetch through the
// de-duplication group and caches its result. A fetch failure is returned
// as is and caches nothing.
func (q *Queries) Get(ctx context.Context, key Key, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	q.mutex.RLock()
	cached, ok := q.entries[key.String()]
	q.mutex.RUnlock()
	if ok {
		return cached, nil
	}

	value, err, _ := q.group.Do(key.String(), func() (interface{}, error) {
		return q.fetchWithRetry(ctx, key, fetch)
	})
	if err != nil {
		return nil, err
	}

	q.mutex.Lock()
	if q.entries == nil {
		q.entries = map[string]interface{}{}
	}
	q.entries[key.String()] = value
	q.mutex.Unlock()

	return value, nil
}

func (q *Queries) fetchWithRetry(ctx context.Context, key Key, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	var value interface{}
	var err error

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		value, err = fetch(ctx)
		if err == nil {
			return value, nil
		}
		if !transport.IsRetryable(err) {
			return nil, err
		}
		if attempt == retryAttempts {
			break
		}

		q.Logger.Warn(ctx, "retrying query", "key", key.String(), "attempt", attempt, "error", err.Error())
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return nil, err
		}
	}
	return nil, err
}

// Invalidate drops every cached query of the collection.
func (q *Queries) Invalidate(collection string) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for key := range q.entries {
		if strings.HasPrefix(key, collection+"?") {
			delete(q.entries, key)
		}
	}
}

// InvalidateOne drops a single cached query.
func (q *Queries) InvalidateOne(key Key) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	delete(q.entries, key.String())
}

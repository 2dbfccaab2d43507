package cache

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// Stats is a snapshot of a namespace's counters.
type Stats struct {
	Name    string `json:"name"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
	TTL     string `json:"ttl"`
}

// Namespace is a typed view over one CacheService with a fixed TTL.
// Values coming back from serializing backends (raw JSON) are decoded into T.
type Namespace[T any] struct {
	name   string
	store  CacheService
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewNamespace[T any](name string, store CacheService, ttl time.Duration) *Namespace[T] {
	return &Namespace[T]{name: name, store: store, ttl: ttl}
}

func (n *Namespace[T]) Get(key string) (T, bool) {
	var zero T
	raw, found := n.store.Get(key)
	if !found {
		n.misses.Add(1)
		return zero, false
	}

	switch v := raw.(type) {
	case T:
		n.hits.Add(1)
		return v, true
	case []byte:
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			n.store.Delete(key)
			n.misses.Add(1)
			return zero, false
		}
		n.hits.Add(1)
		return out, true
	}

	n.misses.Add(1)
	return zero, false
}

func (n *Namespace[T]) Put(key string, value T) {
	n.store.Set(key, value, n.ttl)
}

func (n *Namespace[T]) InvalidateAll() {
	n.store.Flush()
}

func (n *Namespace[T]) Stats() Stats {
	return Stats{
		Name:    n.name,
		Hits:    n.hits.Load(),
		Misses:  n.misses.Load(),
		Entries: n.store.ItemCount(),
		TTL:     n.ttl.String(),
	}
}

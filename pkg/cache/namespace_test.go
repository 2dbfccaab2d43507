package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mapStore map[string]interface{}

func (m mapStore) Get(key string) (interface{}, bool) {
	v, ok := m[key]
	return v, ok
}
func (m mapStore) Set(key string, value interface{}, _ time.Duration) { m[key] = value }
func (m mapStore) Delete(key string)                                  { delete(m, key) }
func (m mapStore) Flush() {
	for k := range m {
		delete(m, k)
	}
}
func (m mapStore) ItemCount() int { return len(m) }

type fee struct {
	Zone   string `json:"zone"`
	Amount string `json:"amount"`
}

func TestNamespace_CountsHitsAndMisses(t *testing.T) {
	ns := NewNamespace[fee]("tariff", mapStore{}, time.Minute)

	_, ok := ns.Get("44225|20.00")
	assert.False(t, ok)

	ns.Put("44225|20.00", fee{Zone: "zone-1", Amount: "1.00"})
	got, ok := ns.Get("44225|20.00")
	assert.True(t, ok)
	assert.Equal(t, "zone-1", got.Zone)

	s := ns.Stats()
	assert.Equal(t, Stats{Name: "tariff", Hits: 1, Misses: 1, Entries: 1, TTL: "1m0s"}, s)
}

func TestNamespace_DecodesSerializedValues(t *testing.T) {
	store := mapStore{"k": []byte(`{"zone":"campus","amount":"0.00"}`)}
	ns := NewNamespace[fee]("tariff", store, time.Minute)

	got, ok := ns.Get("k")
	assert.True(t, ok)
	assert.Equal(t, fee{Zone: "campus", Amount: "0.00"}, got)
}

func TestNamespace_CorruptEntryIsDropped(t *testing.T) {
	store := mapStore{"k": []byte(`{not json`)}
	ns := NewNamespace[fee]("tariff", store, time.Minute)

	_, ok := ns.Get("k")
	assert.False(t, ok)
	assert.Zero(t, store.ItemCount())
	assert.Equal(t, uint64(1), ns.Stats().Misses)
}

func TestNamespace_UnexpectedTypeIsMiss(t *testing.T) {
	ns := NewNamespace[fee]("tariff", mapStore{"k": 42}, time.Minute)

	_, ok := ns.Get("k")
	assert.False(t, ok)
}

func TestNamespace_InvalidateAll(t *testing.T) {
	ns := NewNamespace[fee]("tariff", mapStore{}, time.Minute)
	ns.Put("a", fee{})
	ns.Put("b", fee{})

	ns.InvalidateAll()
	assert.Zero(t, ns.Stats().Entries)
}

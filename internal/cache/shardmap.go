package cache

import "sync"

const shardCount = 32

type shard[V any] struct {
	mu      sync.Mutex
	entries map[int64]V
}

// Map is an in-process map keyed by int64 identifiers. Locking is per
// shard, so operations on unrelated keys do not serialize behind a single
// global lock.
type Map[V any] struct {
	shards [shardCount]shard[V]
}

func NewMap[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i].entries = make(map[int64]V)
	}
	return m
}

func (m *Map[V]) shardFor(key int64) *shard[V] {
	return &m.shards[uint64(key)%shardCount]
}

func (m *Map[V]) Get(key int64) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	v, ok := s.entries[key]
	s.mu.Unlock()
	return v, ok
}

// Set overwrites the entry unconditionally.
func (m *Map[V]) Set(key int64, v V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
}

func (m *Map[V]) Delete(key int64) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Update runs fn under the key's shard lock, serializing read-modify-write
// sequences on the same key. fn receives the current value (ok reports
// whether one exists) and returns the replacement. If fn returns an error
// the entry is left untouched and the error is returned.
func (m *Map[V]) Update(key int64, fn func(v V, ok bool) (V, error)) error {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[key]
	next, err := fn(v, ok)
	if err != nil {
		return err
	}
	s.entries[key] = next
	return nil
}

// Values returns a snapshot of all entries. The snapshot is taken shard by
// shard; no lock is held while the caller iterates it.
func (m *Map[V]) Values() []V {
	var out []V
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for _, v := range s.entries {
			out = append(out, v)
		}
		s.mu.Unlock()
	}
	return out
}

func (m *Map[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

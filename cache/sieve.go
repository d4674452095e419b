package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

type entry[K comparable, V any] struct {
	key     K
	value   V
	visited atomic.Bool
	element *list.Element
}

// Sieve is a fixed capacity cache using the SIEVE eviction policy: a hand walks from the oldest entry towards the
// newest, clearing visited flags until it finds an entry that was not visited since the last sweep. Sieve is safe for
// concurrent use.
type Sieve[K comparable, V any] struct {
	rwLock sync.RWMutex
	store  map[K]*entry[K, V]
	queue  *list.List
	hand   *list.Element
	stats  Stats
}

// NewSieve creates a new Sieve cache. A capacity less than one is raised to one.
func NewSieve[K comparable, V any](capacity int) Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}

	return &Sieve[K, V]{
		store: make(map[K]*entry[K, V], capacity),
		queue: list.New(),
		stats: NewStats(capacity),
	}
}

func (s *Sieve[K, V]) Stats() Stats {
	return s.stats
}

// Put adds or replaces the value for key. Replacing marks the entry visited.
func (s *Sieve[K, V]) Put(key K, value V) {
	s.rwLock.Lock()
	defer s.rwLock.Unlock()

	if existingEntry, exists := s.store[key]; exists {
		existingEntry.value = value
		existingEntry.visited.Store(true)
		return
	}

	if s.queue.Len() >= s.stats.Capacity {
		s.evict()
	}

	s.store[key] = &entry[K, V]{
		key:     key,
		value:   value,
		element: s.queue.PushFront(key),
	}

	s.stats.Put()
}

func (s *Sieve[K, V]) Get(key K) (V, bool) {
	s.rwLock.RLock()
	defer s.rwLock.RUnlock()

	if entry, exists := s.store[key]; exists {
		s.stats.Hit()

		entry.visited.Store(true)
		return entry.value, true
	}

	s.stats.Miss()

	var emptyV V
	return emptyV, false
}

func (s *Sieve[K, V]) Delete(key K) {
	s.rwLock.Lock()
	defer s.rwLock.Unlock()

	if entry, exists := s.store[key]; exists {
		if entry.element == s.hand {
			s.hand = s.hand.Prev()
		}

		s.removeEntry(entry)
	}
}

// Purge drops every entry. Hit and miss counters are retained.
func (s *Sieve[K, V]) Purge() {
	s.rwLock.Lock()
	defer s.rwLock.Unlock()

	clear(s.store)
	s.queue.Init()
	s.hand = nil
	s.stats.reset()
}

// removeEntry expects the caller to hold the write lock.
func (s *Sieve[K, V]) removeEntry(e *entry[K, V]) {
	s.queue.Remove(e.element)
	delete(s.store, e.key)

	s.stats.Delete()
}

// evict expects the caller to hold the write lock.
func (s *Sieve[K, V]) evict() {
	hand := s.hand

	if hand == nil {
		hand = s.queue.Back()
	}

	entry := s.store[hand.Value.(K)]

	for entry.visited.Load() {
		entry.visited.Store(false)

		if hand = hand.Prev(); hand == nil {
			hand = s.queue.Back()
		}

		entry = s.store[hand.Value.(K)]
	}

	s.hand = hand.Prev()
	s.removeEntry(entry)
}

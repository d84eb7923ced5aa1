package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Memo is a process-local LRU shadow of recently read or written entries.
// It only saves round trips to the Store: a memo miss never means the
// address is uncached, and Clear can be called at any time.
//
// Entries older than the shadow window are dropped on read. A nil Memo or
// one built with maxEntries <= 0 is disabled and always misses.
type Memo struct {
	maxEntries int
	window     time.Duration
	clock      clockwork.Clock

	mu      sync.Mutex
	entries map[string]*memoNode
	// root is the sentinel of a circular recency list: root.next is the most
	// recently used node and root.prev the least.
	root memoNode
}

type memoNode struct {
	value    Entry
	storedAt time.Time
	prev     *memoNode
	next     *memoNode
}

// NewMemo creates a memo holding at most maxEntries for window each.
// A zero window keeps entries until evicted. A nil clock uses real time.
func NewMemo(maxEntries int, window time.Duration, clock clockwork.Clock) *Memo {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &Memo{maxEntries: maxEntries, window: window, clock: clock}
	m.reset()
	return m
}

func (m *Memo) disabled() bool {
	return m == nil || m.maxEntries <= 0
}

// Get returns the entry for key if it is present and inside the window.
func (m *Memo) Get(key string) (Entry, bool) {
	if m.disabled() {
		return Entry{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}
	if m.outsideWindow(n) {
		m.drop(n)
		return Entry{}, false
	}
	m.touch(n)
	return n.value, true
}

// Put stores e under e.Key, evicting the least recently used entry when full.
func (m *Memo) Put(e Entry) {
	if m.disabled() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.entries[e.Key]
	if !ok {
		n = &memoNode{}
		m.entries[e.Key] = n
	}
	n.value = e
	n.storedAt = m.clock.Now()
	m.touch(n)

	for len(m.entries) > m.maxEntries {
		m.drop(m.root.prev)
	}
}

// Clear drops every entry.
func (m *Memo) Clear() {
	if m.disabled() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Len returns the number of entries held, including ones past the window
// that have not been read since.
func (m *Memo) Len() int {
	if m.disabled() {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memo) reset() {
	m.entries = make(map[string]*memoNode)
	m.root.next = &m.root
	m.root.prev = &m.root
}

func (m *Memo) outsideWindow(n *memoNode) bool {
	return m.window > 0 && m.clock.Since(n.storedAt) >= m.window
}

// touch links n as the most recently used node, unlinking it first if it is
// already in the list.
func (m *Memo) touch(n *memoNode) {
	if n.prev != nil {
		n.prev.next = n.next
		n.next.prev = n.prev
	}
	n.prev = &m.root
	n.next = m.root.next
	m.root.next.prev = n
	m.root.next = n
}

// drop unlinks n and forgets its key.
func (m *Memo) drop(n *memoNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	delete(m.entries, n.value.Key)
}

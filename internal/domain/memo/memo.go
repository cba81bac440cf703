// Package memo keeps a bounded set of finished query results.
//
// Only final probabilities are stored, never the per-outcome sequences a
// query builds. Keys are 64-bit fingerprints of the query inputs.
package memo

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Default memo configuration constants.
const (
	defaultMaxSize = 4096
)

// Memo remembers query results by fingerprint.
type Memo interface {
	// Get returns the stored result for key, if any.
	Get(ctx context.Context, key uint64) (float64, bool)

	// Put stores v under key, evicting the oldest entry when full.
	Put(ctx context.Context, key uint64, v float64)

	Size() int64
}

// Key fingerprints a query. points is nil for the default schedule, in which
// case events identifies it; a custom schedule is identified by its values.
func Key(kind string, events int, points []float64, p, target float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(u uint64) {
		binary.LittleEndian.PutUint64(buf[:], u)
		_, _ = d.Write(buf[:])
	}

	_, _ = d.WriteString(kind)
	if points == nil {
		_, _ = d.WriteString("|default|")
		put(uint64(events))
	} else {
		_, _ = d.WriteString("|custom|")
		put(uint64(len(points)))
		for _, v := range points {
			put(math.Float64bits(v))
		}
	}
	put(math.Float64bits(p))
	put(math.Float64bits(target))
	return d.Sum64()
}

// node is one entry in the insertion-ordered list.
type node struct {
	key        uint64
	value      float64
	prev, next *node
}

// reset clears the node state for reuse
func (n *node) reset() {
	*n = node{}
}

// inMemoryMemo implements Memo with a map plus an insertion-ordered list.
// maxSize <= 0 disables storage entirely.
type inMemoryMemo struct {
	mu       sync.Mutex
	entries  map[uint64]*node
	head     *node // newest
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryMemo creates a new in-memory memo with configuration options.
func NewInMemoryMemo(opts ...Option) Memo {
	m := &inMemoryMemo{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.entries = make(map[uint64]*node)
	m.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return m
}

// Get returns the stored result for key.
func (m *inMemoryMemo) Get(_ context.Context, key uint64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.entries[key]
	if !ok {
		return 0, false
	}
	return n.value, true
}

// Put stores v under key. Existing keys are left untouched since results
// for identical inputs never change.
func (m *inMemoryMemo) Put(_ context.Context, key uint64, v float64) {
	if m.maxSize <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; exists {
		return
	}
	if len(m.entries) >= m.maxSize {
		m.evictOldest()
	}

	n := m.nodePool.Get().(*node)
	n.key = key
	n.value = v
	n.next = m.head
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
	m.entries[key] = n
	m.size.Add(1)
}

// evictOldest removes the tail entry. Must be called with m.mu held.
func (m *inMemoryMemo) evictOldest() {
	n := m.tail
	if n == nil {
		return
	}
	m.tail = n.prev
	if m.tail != nil {
		m.tail.next = nil
	} else {
		m.head = nil
	}
	delete(m.entries, n.key)
	n.reset()
	m.nodePool.Put(n)
	m.size.Add(-1)
}

// Size returns the current number of stored results.
func (m *inMemoryMemo) Size() int64 {
	return m.size.Load()
}

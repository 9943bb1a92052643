package async

import (
	"sort"
	"sync"
)

// Collector is an append-only result sink safe for concurrent Add.
type Collector[T any] struct {
	mu    sync.Mutex
	items []indexed[T]
}

type indexed[T any] struct {
	index int
	value T
}

func NewCollector[T any](capacity int) *Collector[T] {
	return &Collector[T]{items: make([]indexed[T], 0, capacity)}
}

func (c *Collector[T]) Add(index int, v T) {
	c.mu.Lock()
	c.items = append(c.items, indexed[T]{index: index, value: v})
	c.mu.Unlock()
}

func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Results returns a copy ordered by index, regardless of completion order.
func (c *Collector[T]) Results() []T {
	c.mu.Lock()
	items := make([]indexed[T], len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool { return items[i].index < items[j].index })
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.value
	}
	return out
}

// Package epheap implements the endpoint min-heap: a
// binary heap of constrained endpoints ordered by ascending slack, so the
// worst (most negative, or least positive) endpoints can be pulled off in
// O(log n) without a full scan.
//
// Grounded on dijkstra's nodePQ (container/heap.Interface over a slice of
// pointers, ordered by an ascending key), generalized from dijkstra's
// one-shot lazy-decrease-key usage — push a duplicate, skip stale entries
// on pop — into a persistent index-tracked heap: an endpoint's identity
// outlives any single update_timing call, so Upsert uses heap.Fix against
// a stored position instead of pushing throwaway duplicates.
package epheap

import (
	"container/heap"
	"sync"
)

// Item is one constrained endpoint's current slack, as held in the heap.
type Item struct {
	Endpoint string
	Slack    float64
	index    int
}

// innerHeap implements heap.Interface, min-ordered on Slack.
type innerHeap []*Item

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool { return h[i].Slack < h[j].Slack }

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x interface{}) {
	item := x.(*Item)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Heap is the mutex-guarded endpoint heap — per the only
// data structure the propagation engine's concurrent workers write to
// directly (every other write happens behind the level barrier).
type Heap struct {
	mu    sync.Mutex
	inner innerHeap
	byEP  map[string]*Item
}

// New constructs an empty Heap.
func New() *Heap {
	return &Heap{byEP: make(map[string]*Item)}
}

// Upsert records endpoint's current slack, inserting it if new or fixing
// its position if already present. Complexity: O(log n).
func (h *Heap) Upsert(endpoint string, slack float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if item, ok := h.byEP[endpoint]; ok {
		item.Slack = slack
		heap.Fix(&h.inner, item.index)
		return
	}
	item := &Item{Endpoint: endpoint, Slack: slack}
	heap.Push(&h.inner, item)
	h.byEP[endpoint] = item
}

// Remove drops endpoint from the heap. A no-op if endpoint is absent.
func (h *Heap) Remove(endpoint string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	item, ok := h.byEP[endpoint]
	if !ok {
		return
	}
	heap.Remove(&h.inner, item.index)
	delete(h.byEP, endpoint)
}

// Len reports the number of endpoints currently tracked.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.inner)
}

// Slack returns endpoint's current slack and whether it is tracked.
func (h *Heap) Slack(endpoint string) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	item, ok := h.byEP[endpoint]
	if !ok {
		return 0, false
	}
	return item.Slack, true
}

// Top returns the k endpoints with the smallest slack, ascending. It
// extracts them from the heap and reinserts them before returning, so
// the heap's membership is unchanged by a query — every constrained
// endpoint stays tracked across repeated worst_endpoints calls. If k
// exceeds the number of tracked endpoints, all of them are returned.
// Complexity: O(k log n).
func (h *Heap) Top(k int) []Item {
	h.mu.Lock()
	defer h.mu.Unlock()

	if k > len(h.inner) {
		k = len(h.inner)
	}
	extracted := make([]*Item, 0, k)
	out := make([]Item, 0, k)
	for i := 0; i < k; i++ {
		item := heap.Pop(&h.inner).(*Item)
		out = append(out, *item)
		extracted = append(extracted, item)
	}
	for _, item := range extracted {
		heap.Push(&h.inner, item)
		h.byEP[item.Endpoint] = item
	}
	return out
}

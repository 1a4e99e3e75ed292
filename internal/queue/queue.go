package queue

import (
	"container/heap"
	"sync"
)

// Priority bands. Immediate requests always sort first; keywords that fell
// out of the lookahead window, and anticipatory refills, sort last. Lookahead
// positions occupy the range in between.
const (
	PriorityImmediate = 0
	priorityLowest    = 1 << 20
)

type item struct {
	keyword  string
	priority int
	seq      uint64
	index    int
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *itemHeap) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// TaskQueue is a priority queue of keywords awaiting sentence generation.
// A keyword appears at most once, either queued or marked as processing,
// never both. Workers block in Next until an item arrives or the queue is
// closed.
type TaskQueue struct {
	mu         sync.Mutex
	cond       *sync.Cond
	heap       itemHeap
	queued     map[string]*item
	processing map[string]struct{}
	seq        uint64
	closed     bool
}

// New returns an empty TaskQueue.
func New() *TaskQueue {
	q := &TaskQueue{
		queued:     make(map[string]*item),
		processing: make(map[string]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *TaskQueue) push(keyword string, priority int) {
	q.seq++
	it := &item{keyword: keyword, priority: priority, seq: q.seq}
	heap.Push(&q.heap, it)
	q.queued[keyword] = it
	q.cond.Signal()
}

// EnqueueImmediate queues keyword at the highest priority. A keyword already
// being processed is left alone; a queued keyword is promoted in place.
func (q *TaskQueue) EnqueueImmediate(keyword string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if _, busy := q.processing[keyword]; busy {
		return
	}
	if it, ok := q.queued[keyword]; ok {
		if it.priority != PriorityImmediate {
			it.priority = PriorityImmediate
			heap.Fix(&q.heap, it.index)
			q.cond.Signal()
		}
		return
	}
	q.push(keyword, PriorityImmediate)
}

// EnqueueLowest queues keyword behind all lookahead work. Used for the
// anticipatory refill after the last cached pair of a keyword is consumed.
func (q *TaskQueue) EnqueueLowest(keyword string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if _, busy := q.processing[keyword]; busy {
		return
	}
	if _, ok := q.queued[keyword]; ok {
		return
	}
	q.push(keyword, priorityLowest)
}

// Reorganize aligns queue priorities with the upcoming review order: the
// keyword at position i gets priority i+1. Keywords already queued are
// re-prioritized in place, keywords being processed are skipped, and queued
// keywords absent from upcoming are demoted behind the lookahead window.
// Immediate-priority items are never demoted. Calling Reorganize twice with
// the same slice is a no-op.
func (q *TaskQueue) Reorganize(upcoming []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}

	wanted := make(map[string]int, len(upcoming))
	for i, kw := range upcoming {
		if _, ok := wanted[kw]; !ok {
			wanted[kw] = i + 1
		}
	}

	for kw, it := range q.queued {
		if it.priority == PriorityImmediate {
			continue
		}
		prio, ok := wanted[kw]
		if !ok {
			prio = priorityLowest
		}
		if it.priority != prio {
			it.priority = prio
			heap.Fix(&q.heap, it.index)
		}
	}

	for kw, prio := range wanted {
		if _, busy := q.processing[kw]; busy {
			continue
		}
		if _, ok := q.queued[kw]; ok {
			continue
		}
		q.push(kw, prio)
	}
	q.cond.Broadcast()
}

// Next blocks until a keyword is available, removes it from the queue and
// marks it as processing. It returns ok=false once the queue is closed.
func (q *TaskQueue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return "", false
	}

	it := heap.Pop(&q.heap).(*item)
	delete(q.queued, it.keyword)
	q.processing[it.keyword] = struct{}{}
	return it.keyword, true
}

// Done clears the processing mark for keyword, allowing it to be enqueued
// again.
func (q *TaskQueue) Done(keyword string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.processing, keyword)
}

// Contains reports whether keyword is queued or being processed.
func (q *TaskQueue) Contains(keyword string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queued[keyword]; ok {
		return true
	}
	_, busy := q.processing[keyword]
	return busy
}

// Len returns the number of queued keywords, not counting those being
// processed.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Close discards all pending work and wakes every blocked worker. Enqueue
// calls after Close are ignored.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.heap = nil
	q.queued = make(map[string]*item)
	q.cond.Broadcast()
}

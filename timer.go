package coroio

import "container/heap"

// defaultTimerCacheSize is lua-eco's MAX_TIMER_CACHE: up to this many
// retired timer objects are kept on a free-list instead of being released
// to the garbage collector.
const defaultTimerCacheSize = 32

// timerHolderKind distinguishes what a fired timer resumes.
type timerHolderKind uint8

const (
	holderNone timerHolderKind = iota
	holderTask
	holderIoHandle
)

// timerHolder is the TimerHolder sum type from spec §9: either a task to
// resume directly (sleep()), or an IoHandle whose is_timeout flag is set
// before its waiter is resumed (IoHandle.Wait with a timeout).
type timerHolder struct {
	kind   timerHolderKind
	task   *Task
	handle *IoHandle
}

// timer is one entry in the scheduler's ordered deadline list. deadline==0
// means "not armed" (either fresh off the free-list or just fired/stopped).
type timer struct {
	deadline int64 // absolute monotonic milliseconds, 0 = not armed
	seq      uint64
	holder   timerHolder
	index    int // heap index, -1 when not in the heap
}

// timerHeap is a container/heap min-heap ordered by (deadline, seq), giving
// the insertion-order tie-break spec §4.1 requires ("first armed, first
// fired").
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timerAlloc takes a timer from the free-list if one is available, else
// allocates a fresh one.
func (s *Scheduler) timerAlloc() *timer {
	if n := len(s.timerFreeList); n > 0 {
		t := s.timerFreeList[n-1]
		s.timerFreeList = s.timerFreeList[:n-1]
		return t
	}
	return &timer{index: -1}
}

// timerFree stops t if armed, then either returns it to the bounded
// free-list or lets it go to the garbage collector.
func (s *Scheduler) timerFree(t *timer) {
	s.timerStop(t)
	if len(s.timerFreeList) < s.timerCacheSize {
		t.holder = timerHolder{}
		s.timerFreeList = append(s.timerFreeList, t)
	}
}

// timerStart arms t to fire after delaySeconds, recording holder as what
// gets resumed.
func (s *Scheduler) timerStart(t *timer, delaySeconds float64, holder timerHolder) {
	s.timerStop(t)
	t.deadline = s.nowMS() + int64(delaySeconds*1000)
	t.seq = s.timerSeq
	s.timerSeq++
	t.holder = holder
	heap.Push(&s.timers, t)
}

// timerStop unlinks t from the active heap if armed; a no-op otherwise.
func (s *Scheduler) timerStop(t *timer) {
	if t.index < 0 {
		t.deadline = 0
		return
	}
	heap.Remove(&s.timers, t.index)
	t.deadline = 0
}

// nextTimeoutMS returns -1 ("infinite") if no timer is armed, else the
// milliseconds until the earliest deadline, floored at 0.
func (s *Scheduler) nextTimeoutMS(now int64) int {
	if s.timers.Len() == 0 {
		return -1
	}
	d := s.timers[0].deadline - now
	if d < 0 {
		d = 0
	}
	return int(d)
}

// drainExpiredTimers pops and fires every timer whose deadline has passed,
// in non-decreasing deadline order (ties broken by arming order). A
// resumed task may arm new timers mid-drain; those are inserted in order
// and only fire on a later call once their own deadline elapses.
func (s *Scheduler) drainExpiredTimers(now int64) {
	limit := s.timerSeq // timers armed from here on carry seq >= limit
	for s.timers.Len() > 0 && s.timers[0].deadline <= now && s.timers[0].seq < limit {
		t := heap.Pop(&s.timers).(*timer)
		holder := t.holder
		s.timerFree(t)

		switch holder.kind {
		case holderTask:
			s.resume(holder.task, nil)
		case holderIoHandle:
			holder.handle.fireTimeout()
		}
	}
}

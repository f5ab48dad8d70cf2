package engine

import "sync"

// inbox holds world events waiting for the Run loop, oldest first.
//
// Hosts push from their own goroutines; only Run pops. The wake channel
// carries at most one pending token, so a burst of pushes costs Run a
// single wakeup, and it is closed on shut so Run can drain and exit.
type inbox struct {
	mu     sync.Mutex
	events []Event
	head   int // events[:head] are already popped
	shut   bool
	wake   chan struct{}
}

func newInbox() *inbox {
	return &inbox{wake: make(chan struct{}, 1)}
}

// push appends ev. It reports false once the inbox is shut.
func (b *inbox) push(ev Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shut {
		return false
	}
	b.events = append(b.events, ev)
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return true
}

// pop takes the oldest event, if any.
func (b *inbox) pop() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head == len(b.events) {
		return Event{}, false
	}
	ev := b.events[b.head]
	b.events[b.head] = Event{}
	b.head++

	// Reuse the backing array once the popped prefix dominates it.
	if b.head == len(b.events) {
		b.events, b.head = b.events[:0], 0
	} else if b.head > 32 && b.head*2 > len(b.events) {
		n := copy(b.events, b.events[b.head:])
		clear(b.events[n:])
		b.events, b.head = b.events[:n], 0
	}
	return ev, true
}

// ready signals that events may be waiting. It is closed by close.
func (b *inbox) ready() <-chan struct{} {
	return b.wake
}

// pending is the number of events not yet popped.
func (b *inbox) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events) - b.head
}

// close refuses further pushes and wakes Run. Safe to call twice.
func (b *inbox) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shut {
		b.shut = true
		close(b.wake)
	}
}

package events

import (
	"sync"
)

const (
	defaultBacklog    = 256
	subscriberBufSize = 64
)

// Bus fans committed events out to live subscribers and retains a bounded
// backlog so new subscribers can catch up on recent activity. Slow subscribers
// drop events rather than block the node.
type Bus struct {
	mu          sync.Mutex
	backlog     []Event
	limit       int
	nextID      uint64
	subscribers map[uint64]chan Event
	dropped     uint64
	onDrop      func()
}

// NewBus creates a bus retaining at most backlog events. A non-positive value
// selects the default size.
func NewBus(backlog int) *Bus {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Bus{
		limit:       backlog,
		subscribers: make(map[uint64]chan Event),
	}
}

// Emit implements the Emitter interface.
func (b *Bus) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backlog = append(b.backlog, evt)
	if over := len(b.backlog) - b.limit; over > 0 {
		b.backlog = append([]Event(nil), b.backlog[over:]...)
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.dropped++
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
}

// Subscribe registers a new subscriber and returns its channel, a cancel
// function and a copy of the current backlog.
func (b *Bus) Subscribe() (<-chan Event, func(), []Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBufSize)
	b.subscribers[id] = ch
	backlog := append([]Event(nil), b.backlog...)
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, backlog
}

// OnDrop registers fn to run whenever a delivery is skipped.
func (b *Bus) OnDrop(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDrop = fn
}

// Backlog returns a copy of the retained events.
func (b *Bus) Backlog() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.backlog...)
}

// Dropped reports how many deliveries were skipped because a subscriber was
// not keeping up.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

package events

import "sync"

// Buffer collects events emitted during a single call so they can be released
// only once the call commits. Discarded calls never reach subscribers.
type Buffer struct {
	mu      sync.Mutex
	pending []Event
}

// Emit implements the Emitter interface by queueing the event.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, evt)
	b.mu.Unlock()
}

// Flush forwards all queued events to the target emitter in emission order and
// resets the buffer.
func (b *Buffer) Flush(target Emitter) []Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	queued := b.pending
	b.pending = nil
	b.mu.Unlock()
	if target != nil {
		for _, evt := range queued {
			target.Emit(evt)
		}
	}
	return queued
}

// Reset drops every queued event.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

// Len returns the number of queued events.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

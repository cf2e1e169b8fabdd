package events

import (
	"testing"

	"nftmarket/core/types"
)

func testEvent(kind string) Event {
	return Wrap(&types.Event{Type: kind, Attributes: map[string]string{}})
}

func TestBufferFlushPreservesOrder(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(testEvent("a"))
	buf.Emit(testEvent("b"))
	bus := NewBus(4)
	flushed := buf.Flush(bus)
	if len(flushed) != 2 || buf.Len() != 0 {
		t.Fatalf("unexpected flush result: %d queued=%d", len(flushed), buf.Len())
	}
	backlog := bus.Backlog()
	if backlog[0].EventType() != "a" || backlog[1].EventType() != "b" {
		t.Fatalf("unexpected order: %s %s", backlog[0].EventType(), backlog[1].EventType())
	}
}

func TestBufferResetDropsEvents(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(testEvent("a"))
	buf.Reset()
	bus := NewBus(4)
	buf.Flush(bus)
	if got := len(bus.Backlog()); got != 0 {
		t.Fatalf("expected empty backlog, got %d", got)
	}
}

func TestBusBacklogBounded(t *testing.T) {
	bus := NewBus(2)
	bus.Emit(testEvent("a"))
	bus.Emit(testEvent("b"))
	bus.Emit(testEvent("c"))
	backlog := bus.Backlog()
	if len(backlog) != 2 || backlog[0].EventType() != "b" {
		t.Fatalf("unexpected backlog %+v", backlog)
	}
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus(8)
	bus.Emit(testEvent("old"))
	ch, cancel, backlog := bus.Subscribe()
	if len(backlog) != 1 {
		t.Fatalf("expected backlog of 1, got %d", len(backlog))
	}
	bus.Emit(testEvent("new"))
	evt := <-ch
	if evt.EventType() != "new" {
		t.Fatalf("expected new event, got %s", evt.EventType())
	}
	payload, ok := Payload(evt)
	if !ok || payload.Type != "new" {
		t.Fatalf("payload not recovered")
	}
	cancel()
	cancel()
	if _, open := <-ch; open {
		t.Fatalf("expected channel to be closed")
	}
}

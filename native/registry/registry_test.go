package registry

import (
	"errors"
	"testing"

	"nftmarket/core/events"
)

type mockState struct {
	owner   [20]byte
	entries map[string][20]byte
}

func (m *mockState) RegistryOwner() ([20]byte, error) { return m.owner, nil }

func (m *mockState) RegistryGet(role string) ([20]byte, error) { return m.entries[role], nil }

func (m *mockState) RegistryPut(role string, addr [20]byte) error {
	m.entries[role] = addr
	return nil
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[0] = b
	return a
}

func TestUpdateAndLookup(t *testing.T) {
	state := &mockState{owner: addr(1), entries: map[string][20]byte{}}
	engine := NewEngine(addr(0xEE))
	engine.SetState(state)
	var emitted []string
	engine.SetEmitter(events.EmitterFunc(func(evt events.Event) { emitted = append(emitted, evt.EventType()) }))

	got, err := engine.Lookup(RoleWETH)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != ([20]byte{}) {
		t.Fatalf("expected unset role to be zero")
	}
	if err := engine.UpdateWETH(addr(1), addr(9)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ := engine.Lookup(RoleWETH); got != addr(9) {
		t.Fatalf("unexpected weth address %x", got)
	}
	if len(emitted) != 1 || emitted[0] != EventTypeUpdated {
		t.Fatalf("unexpected events %v", emitted)
	}
}

func TestUpdateRequiresOwner(t *testing.T) {
	state := &mockState{owner: addr(1), entries: map[string][20]byte{}}
	engine := NewEngine(addr(0xEE))
	engine.SetState(state)
	if err := engine.UpdateMarketplace(addr(2), addr(3)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, ok := state.entries[RoleMarketplace]; ok {
		t.Fatalf("entry written despite rejection")
	}
}

func TestUnknownRole(t *testing.T) {
	engine := NewEngine(addr(0xEE))
	engine.SetState(&mockState{owner: addr(1), entries: map[string][20]byte{}})
	if err := engine.Update(addr(1), "oracle", addr(3)); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role, got %v", err)
	}
	if _, err := engine.Lookup("oracle"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected unknown role on lookup, got %v", err)
	}
}

func TestEntriesCoversAllRoles(t *testing.T) {
	engine := NewEngine(addr(0xEE))
	engine.SetState(&mockState{owner: addr(1), entries: map[string][20]byte{RoleAuction: addr(4)}})
	entries, err := engine.Entries()
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != len(Roles) || entries[RoleAuction] != addr(4) {
		t.Fatalf("unexpected entries %v", entries)
	}
}

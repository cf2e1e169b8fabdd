package common

import (
	"errors"
	"testing"
)

func TestGuard(t *testing.T) {
	pauses := PauseSet{ModuleAuction: true}
	if err := Guard(pauses, ModuleAuction); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauses, ModuleMarketplace); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Guard(nil, ModuleAuction); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
}

package common

import "errors"

// ErrModulePaused is returned when an operator has halted a module through
// node configuration. It is distinct from the auction's own pause flag.
var ErrModulePaused = errors.New("module paused")

// Module names accepted by Guard.
const (
	ModuleRegistry    = "registry"
	ModuleToken       = "token"
	ModuleNFT         = "nft"
	ModuleFactory     = "factory"
	ModuleMarketplace = "marketplace"
	ModuleAuction     = "auction"
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView built from configuration.
type PauseSet map[string]bool

// IsPaused implements PauseView.
func (p PauseSet) IsPaused(module string) bool {
	return p[module]
}

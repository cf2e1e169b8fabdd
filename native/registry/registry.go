// Package registry maps the logical roles of the marketplace deployment to
// module and collection addresses.
package registry

import (
	"errors"
	"fmt"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/crypto"
)

// Roles understood by the registry.
const (
	RoleMarketplace = "marketplace"
	RoleAuction     = "auction"
	RoleNFT         = "nft"
	RoleNFTFactory  = "nftFactory"
	RoleWETH        = "weth"
)

// Roles lists every role in a stable order.
var Roles = []string{RoleMarketplace, RoleAuction, RoleNFT, RoleNFTFactory, RoleWETH}

const EventTypeUpdated = "registry.updated"

var (
	errNilState    = errors.New("registry engine: state not configured")
	ErrNotOwner    = errors.New("Ownable: caller is not the owner")
	ErrUnknownRole = errors.New("registry: unknown role")
)

type engineState interface {
	RegistryOwner() ([20]byte, error)
	RegistryGet(role string) ([20]byte, error)
	RegistryPut(role string, addr [20]byte) error
}

// Engine owns the role directory.
type Engine struct {
	state   engineState
	emitter events.Emitter
	address [20]byte
}

// NewEngine constructs a registry reachable at address.
func NewEngine(address [20]byte) *Engine {
	return &Engine{address: address, emitter: events.NoopEmitter{}}
}

// Address returns the registry's own address.
func (e *Engine) Address() [20]byte { return e.address }

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// KnownRole reports whether role is one of Roles.
func KnownRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Owner returns the account allowed to update entries.
func (e *Engine) Owner() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	return e.state.RegistryOwner()
}

// Lookup returns the address bound to role, or the zero address when unset.
func (e *Engine) Lookup(role string) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	if !KnownRole(role) {
		return [20]byte{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return e.state.RegistryGet(role)
}

// Entries returns every role with its current binding.
func (e *Engine) Entries() (map[string][20]byte, error) {
	out := make(map[string][20]byte, len(Roles))
	for _, role := range Roles {
		addr, err := e.Lookup(role)
		if err != nil {
			return nil, err
		}
		out[role] = addr
	}
	return out, nil
}

// Update binds role to addr. Only the registry owner may call it.
func (e *Engine) Update(caller [20]byte, role string, addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !KnownRole(role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	owner, err := e.state.RegistryOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if err := e.state.RegistryPut(role, addr); err != nil {
		return err
	}
	e.emitter.Emit(events.Wrap(&types.Event{
		Type: EventTypeUpdated,
		Attributes: map[string]string{
			"role":    role,
			"address": crypto.HexAddress(addr),
		},
	}))
	return nil
}

func (e *Engine) UpdateMarketplace(caller, addr [20]byte) error {
	return e.Update(caller, RoleMarketplace, addr)
}

func (e *Engine) UpdateAuction(caller, addr [20]byte) error {
	return e.Update(caller, RoleAuction, addr)
}

func (e *Engine) UpdateNFT(caller, addr [20]byte) error {
	return e.Update(caller, RoleNFT, addr)
}

func (e *Engine) UpdateNFTFactory(caller, addr [20]byte) error {
	return e.Update(caller, RoleNFTFactory, addr)
}

func (e *Engine) UpdateWETH(caller, addr [20]byte) error {
	return e.Update(caller, RoleWETH, addr)
}

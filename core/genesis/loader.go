// core/genesis/loader.go
package genesis

import (
	"errors"
	"fmt"

	"nftmarket/core/state"
	"nftmarket/crypto"
	"nftmarket/native/auction"
	"nftmarket/native/common"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
	"nftmarket/native/registry"
)

const markerKey = "genesis/applied"

// ErrAlreadyApplied is returned when the database already carries a genesis.
var ErrAlreadyApplied = errors.New("genesis already applied")

// RoleModules binds every registry role to the module serving it.
var RoleModules = map[string]string{
	registry.RoleMarketplace: common.ModuleMarketplace,
	registry.RoleAuction:     common.ModuleAuction,
	registry.RoleNFT:         common.ModuleNFT,
	registry.RoleNFTFactory:  common.ModuleFactory,
	registry.RoleWETH:        common.ModuleToken,
}

// Applied reports whether a genesis has been written through manager.
func Applied(manager *state.Manager) (bool, error) {
	var ts uint64
	return manager.KVGet([]byte(markerKey), &ts)
}

// GenesisTime returns the recorded genesis timestamp in unix seconds.
func GenesisTime(manager *state.Manager) (int64, error) {
	var ts uint64
	if _, err := manager.KVGet([]byte(markerKey), &ts); err != nil {
		return 0, err
	}
	return int64(ts), nil
}

// Apply writes the initial module state into manager and commits it. Module
// ownership, fee configuration, registry bindings, the public collection and
// native allocations are written in one batch.
func Apply(spec *GenesisSpec, manager *state.Manager, now int64) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	if applied, err := Applied(manager); err != nil {
		return err
	} else if applied {
		return ErrAlreadyApplied
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if ts := spec.GenesisTimestamp(); !ts.IsZero() {
		now = ts.Unix()
	}
	if err := build(spec, manager, now); err != nil {
		manager.Discard()
		return err
	}
	return manager.Commit()
}

func build(spec *GenesisSpec, manager *state.Manager, now int64) error {
	owner := spec.OwnerAddress()
	recipient := spec.FeeRecipientAddress()
	registryAddr := crypto.ModuleAddress(common.ModuleRegistry)

	// 1) Registry
	if err := manager.SetRegistryOwner(owner); err != nil {
		return fmt.Errorf("registry owner: %w", err)
	}
	for _, role := range registry.Roles {
		module, ok := RoleModules[role]
		if !ok {
			return fmt.Errorf("no module for role %q", role)
		}
		if err := manager.RegistryPut(role, crypto.ModuleAddress(module)); err != nil {
			return fmt.Errorf("registry %s: %w", role, err)
		}
	}

	// 2) Module configuration
	if err := manager.MarketConfigPut(&marketplace.Config{
		Owner:           owner,
		PlatformFee:     spec.MarketplaceFeeValue(),
		FeeRecipient:    recipient,
		AddressRegistry: registryAddr,
	}); err != nil {
		return fmt.Errorf("marketplace config: %w", err)
	}
	if err := manager.AuctionConfigPut(&auction.Config{
		Owner:           owner,
		PlatformFee:     spec.AuctionFeeValue(),
		FeeRecipient:    recipient,
		AddressRegistry: registryAddr,
	}); err != nil {
		return fmt.Errorf("auction config: %w", err)
	}
	if err := manager.FactoryConfigPut(&factory.Config{
		Owner:        owner,
		PlatformFee:  spec.FactoryFeeValue(),
		FeeRecipient: recipient,
	}); err != nil {
		return fmt.Errorf("factory config: %w", err)
	}

	// 3) Public collection lives at the nft module address
	public := spec.PublicCollectionValue()
	nftAddr := crypto.ModuleAddress(common.ModuleNFT)
	engine := nft.NewEngine(nftAddr)
	engine.SetState(manager)
	if _, err := engine.DeployCollection(nft.DeployParams{
		Address:          nftAddr,
		Name:             public.Name,
		Symbol:           public.Symbol,
		Owner:            owner,
		RoyaltyRecipient: owner,
		RoyaltyBps:       public.RoyaltyBps,
		Public:           true,
		MintFee:          spec.MintFeeValue(),
	}); err != nil {
		return fmt.Errorf("public collection: %w", err)
	}

	// 4) Allocations (sorted)
	for _, alloc := range spec.Allocations() {
		if err := manager.Credit(alloc.Address, alloc.Amount); err != nil {
			return fmt.Errorf("alloc %s: %w", crypto.HexAddress(alloc.Address), err)
		}
	}

	if now < 0 {
		now = 0
	}
	return manager.KVPut([]byte(markerKey), uint64(now))
}

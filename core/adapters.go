package core

import (
	coreerrors "nftmarket/core/errors"
	"nftmarket/native/registry"
	"nftmarket/native/settlement"
	"nftmarket/native/token"
)

// registryResolver answers address registry lookups for the engines that keep
// the registry address in their configuration.
type registryResolver struct {
	engine *registry.Engine
}

func (r registryResolver) Lookup(addr [20]byte, role string) ([20]byte, error) {
	if r.engine == nil || addr != r.engine.Address() {
		return [20]byte{}, coreerrors.ErrUnknownRegistry
	}
	return r.engine.Lookup(role)
}

// tokenDirectory resolves payment token addresses to their ledgers.
type tokenDirectory struct {
	engine *token.Engine
}

func (d tokenDirectory) Token(addr [20]byte) (settlement.TokenLedger, error) {
	if d.engine == nil || addr != d.engine.Address() {
		return nil, coreerrors.ErrUnknownToken
	}
	return d.engine, nil
}

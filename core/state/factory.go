package state

import (
	"math/big"

	"nftmarket/native/factory"
)

const (
	factoryConfigKey   = "factory/config"
	factoryOwnedPrefix = "factory/owned/"
)

// FactoryConfig returns the factory configuration or an empty one.
func (m *Manager) FactoryConfig() (*factory.Config, error) {
	cfg := new(factory.Config)
	ok, err := m.KVGet([]byte(factoryConfigKey), cfg)
	if err != nil {
		return nil, err
	}
	if !ok || cfg.PlatformFee == nil {
		cfg.PlatformFee = big.NewInt(0)
	}
	return cfg, nil
}

// FactoryConfigPut stores the factory configuration.
func (m *Manager) FactoryConfigPut(cfg *factory.Config) error {
	return m.KVPut([]byte(factoryConfigKey), cfg)
}

// FactoryCollections lists the collections created by owner.
func (m *Manager) FactoryCollections(owner [20]byte) ([][20]byte, error) {
	var raw [][]byte
	if err := m.KVGetList(joinKey(factoryOwnedPrefix, owner[:]), &raw); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		var addr [20]byte
		copy(addr[:], entry)
		out = append(out, addr)
	}
	return out, nil
}

// FactoryAppendCollection records a collection created by owner.
func (m *Manager) FactoryAppendCollection(owner, collection [20]byte) error {
	return m.KVAppend(joinKey(factoryOwnedPrefix, owner[:]), collection[:])
}

package state

import (
	"encoding/binary"

	"nftmarket/native/nft"
)

const (
	nftCollectionPrefix = "nft/collection/"
	nftTokenPrefix      = "nft/token/"
	nftOperatorPrefix   = "nft/operator/"
	nftBalancePrefix    = "nft/balance/"
)

func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// NFTCollectionGet loads a collection by address.
func (m *Manager) NFTCollectionGet(addr [20]byte) (*nft.Collection, bool, error) {
	c := new(nft.Collection)
	ok, err := m.KVGet(joinKey(nftCollectionPrefix, addr[:]), c)
	if err != nil || !ok {
		return nil, false, err
	}
	return c, true, nil
}

// NFTCollectionPut stores a collection.
func (m *Manager) NFTCollectionPut(c *nft.Collection) error {
	return m.KVPut(joinKey(nftCollectionPrefix, c.Address[:]), c)
}

// NFTTokenGet loads a token.
func (m *Manager) NFTTokenGet(collection [20]byte, id uint64) (*nft.Token, bool, error) {
	t := new(nft.Token)
	ok, err := m.KVGet(joinKey(nftTokenPrefix, collection[:], uint64Bytes(id)), t)
	if err != nil || !ok {
		return nil, false, err
	}
	return t, true, nil
}

// NFTTokenPut stores a token.
func (m *Manager) NFTTokenPut(t *nft.Token) error {
	return m.KVPut(joinKey(nftTokenPrefix, t.Collection[:], uint64Bytes(t.ID)), t)
}

// NFTOperatorGet reports whether operator manages every token owner holds in
// collection.
func (m *Manager) NFTOperatorGet(collection, owner, operator [20]byte) (bool, error) {
	var approved bool
	if _, err := m.KVGet(joinKey(nftOperatorPrefix, collection[:], owner[:], operator[:]), &approved); err != nil {
		return false, err
	}
	return approved, nil
}

// NFTOperatorPut stores an operator approval.
func (m *Manager) NFTOperatorPut(collection, owner, operator [20]byte, approved bool) error {
	key := joinKey(nftOperatorPrefix, collection[:], owner[:], operator[:])
	if !approved {
		return m.KVDelete(key)
	}
	return m.KVPut(key, approved)
}

// NFTBalanceGet returns how many tokens of collection owner holds.
func (m *Manager) NFTBalanceGet(collection, owner [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.KVGet(joinKey(nftBalancePrefix, collection[:], owner[:]), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// NFTBalancePut stores the holding count of owner.
func (m *Manager) NFTBalancePut(collection, owner [20]byte, count uint64) error {
	key := joinKey(nftBalancePrefix, collection[:], owner[:])
	if count == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, count)
}

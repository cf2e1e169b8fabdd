package nft

import (
	"math/big"

	"nftmarket/native/settlement"
)

// MaxRoyaltyBps caps collection and token royalties at 10%.
const MaxRoyaltyBps = settlement.MaxRoyaltyBps

// Collection is one ERC-721 style contract hosted by the engine.
type Collection struct {
	Address          [20]byte
	Name             string
	Symbol           string
	Owner            [20]byte
	RoyaltyRecipient [20]byte
	RoyaltyBps       uint64
	// NextTokenID is the id the next mint receives. Ids start at 1.
	NextTokenID uint64
	// Public collections accept mints from anyone paying MintFee.
	Public  bool
	MintFee *big.Int
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	if c.MintFee != nil {
		clone.MintFee = new(big.Int).Set(c.MintFee)
	}
	return &clone
}

// Minted returns how many tokens the collection has issued.
func (c *Collection) Minted() uint64 {
	if c == nil || c.NextTokenID == 0 {
		return 0
	}
	return c.NextTokenID - 1
}

// Token is a single unique asset.
type Token struct {
	Collection [20]byte
	ID         uint64
	Owner      [20]byte
	Approved   [20]byte
	URI        string
	Creator    [20]byte
	// Token level royalty overrides the collection default when HasRoyalty
	// is set.
	HasRoyalty       bool
	RoyaltyRecipient [20]byte
	RoyaltyBps       uint64
}

// Clone returns a copy of the token.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

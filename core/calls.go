package core

import (
	"fmt"
	"math/big"

	coreerrors "nftmarket/core/errors"
	"nftmarket/core/types"
)

// Call is one externally invoked operation. Value is moved from Caller to
// the module address before the method runs.
type Call struct {
	Caller [20]byte
	Value  *big.Int
	Module string
	Method string
	Params any
}

// Receipt describes a committed call.
type Receipt struct {
	Module    string         `json:"module"`
	Method    string         `json:"method"`
	Caller    [20]byte       `json:"caller"`
	Timestamp int64          `json:"timestamp"`
	Nonce     uint64         `json:"nonce"`
	Result    any            `json:"result,omitempty"`
	Events    []*types.Event `json:"events"`
}

// ItemParams addresses one token of one collection.
type ItemParams struct {
	Asset   [20]byte
	TokenID uint64
}

type ListingParams struct {
	Asset   [20]byte
	TokenID uint64
	Price   *big.Int
}

type OfferParams struct {
	Asset      [20]byte
	TokenID    uint64
	Amount     *big.Int
	Expiration int64
}

type AcceptOfferParams struct {
	Asset   [20]byte
	TokenID uint64
	Offerer [20]byte
}

type AuctionParams struct {
	Asset      [20]byte
	TokenID    uint64
	MinimumBid *big.Int
	StartTime  int64
	EndTime    int64
}

type MinBidParams struct {
	Asset      [20]byte
	TokenID    uint64
	MinimumBid *big.Int
}

// TimeParams carries a new start or end time for an auction.
type TimeParams struct {
	Asset   [20]byte
	TokenID uint64
	Time    int64
}

type FeeParams struct {
	Fee *big.Int
}

type AddressParams struct {
	Address [20]byte
}

type RoleParams struct {
	Role    string
	Address [20]byte
}

type AmountParams struct {
	Amount *big.Int
}

type TokenApproveParams struct {
	Spender [20]byte
	Amount  *big.Int
}

// TokenTransferParams moves payment tokens. From is ignored by plain
// transfers, which always debit the caller.
type TokenTransferParams struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

type MintParams struct {
	Collection [20]byte
	URI        string
}

type PublicMintParams struct {
	URI        string
	RoyaltyBps uint64
}

type NFTApproveParams struct {
	Collection [20]byte
	To         [20]byte
	TokenID    uint64
}

type OperatorParams struct {
	Collection [20]byte
	Operator   [20]byte
	Approved   bool
}

type NFTTransferParams struct {
	Collection [20]byte
	From       [20]byte
	To         [20]byte
	TokenID    uint64
}

type RoyaltyParams struct {
	Collection [20]byte
	Recipient  [20]byte
	Bps        uint64
}

type CollectionParams struct {
	Collection [20]byte
}

type CreateCollectionParams struct {
	Name             string
	Symbol           string
	RoyaltyBps       uint64
	RoyaltyRecipient [20]byte
}

func decodeParams[T any](call Call) (T, error) {
	var zero T
	switch p := call.Params.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	return zero, fmt.Errorf("%w: %s.%s expects %T", coreerrors.ErrInvalidParams, call.Module, call.Method, zero)
}

package auction

import (
	"math/big"
	"time"
)

const (
	// MinDuration separates start and end of an auction and bounds how close
	// to the present an end time may be set.
	MinDuration = 5 * time.Minute
	// WithdrawGracePeriod is how long after the end the highest bidder must
	// wait before reclaiming an unresulted bid.
	WithdrawGracePeriod = 12 * time.Hour

	// DefaultPlatformFee is 10% over the 1000 denominator.
	DefaultPlatformFee = 100
)

var (
	minDurationSeconds = int64(MinDuration / time.Second)
	graceSeconds       = int64(WithdrawGracePeriod / time.Second)
)

// Auction is an English auction of one token.
type Auction struct {
	Asset      [20]byte `json:"asset"`
	TokenID    uint64   `json:"tokenId"`
	Owner      [20]byte `json:"owner"`
	MinimumBid *big.Int `json:"minimumBid"`
	StartTime  int64    `json:"startTime"`
	EndTime    int64    `json:"endTime"`
}

// Exists reports whether the record describes a created auction.
func (a *Auction) Exists() bool {
	return a != nil && a.Owner != ([20]byte{})
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.MinimumBid != nil {
		clone.MinimumBid = new(big.Int).Set(a.MinimumBid)
	}
	return &clone
}

// HighestBid is the bid currently escrowed for an auction.
type HighestBid struct {
	Asset    [20]byte `json:"asset"`
	TokenID  uint64   `json:"tokenId"`
	Bidder   [20]byte `json:"bidder"`
	Amount   *big.Int `json:"amount"`
	PlacedAt int64    `json:"placedAt"`
}

// Exists reports whether a bidder is recorded.
func (b *HighestBid) Exists() bool {
	return b != nil && b.Bidder != ([20]byte{}) && b.Amount != nil && b.Amount.Sign() > 0
}

// Clone returns a deep copy of the bid.
func (b *HighestBid) Clone() *HighestBid {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Amount != nil {
		clone.Amount = new(big.Int).Set(b.Amount)
	}
	return &clone
}

// Config is the persisted auction house configuration.
type Config struct {
	Owner           [20]byte `json:"owner"`
	PlatformFee     *big.Int `json:"platformFee"`
	FeeRecipient    [20]byte `json:"feeRecipient"`
	Paused          bool     `json:"paused"`
	AddressRegistry [20]byte `json:"addressRegistry"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PlatformFee != nil {
		clone.PlatformFee = new(big.Int).Set(c.PlatformFee)
	}
	return &clone
}

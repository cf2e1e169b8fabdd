package marketplace

import "math/big"

// DefaultPlatformFee is 2.5% expressed over the 1000 denominator.
const DefaultPlatformFee = 25

// Listing is a fixed-price sale of one token. A nil or zero price means the
// token is not listed.
type Listing struct {
	Asset   [20]byte `json:"asset"`
	TokenID uint64   `json:"tokenId"`
	Seller  [20]byte `json:"seller"`
	Price   *big.Int `json:"price"`
}

// Active reports whether the listing exists.
func (l *Listing) Active() bool {
	return l != nil && l.Price != nil && l.Price.Sign() > 0
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	}
	return &clone
}

// Offer is a payment token bid on one token by one offerer. The amount is not
// escrowed; it is pulled through the offerer's allowance on acceptance.
type Offer struct {
	Asset      [20]byte `json:"asset"`
	TokenID    uint64   `json:"tokenId"`
	Offerer    [20]byte `json:"offerer"`
	Amount     *big.Int `json:"amount"`
	Expiration int64    `json:"expiration"`
}

// Exists reports whether an offer record is stored, expired or not.
func (o *Offer) Exists() bool {
	return o != nil && o.Amount != nil && o.Amount.Sign() > 0
}

// Live reports whether the offer exists and has not expired at now.
func (o *Offer) Live(now int64) bool {
	return o.Exists() && o.Expiration > now
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Amount != nil {
		clone.Amount = new(big.Int).Set(o.Amount)
	}
	return &clone
}

// Config is the persisted marketplace configuration.
type Config struct {
	Owner           [20]byte `json:"owner"`
	PlatformFee     *big.Int `json:"platformFee"`
	FeeRecipient    [20]byte `json:"feeRecipient"`
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

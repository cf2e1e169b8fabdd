// Package settlement implements the fee and royalty split shared by the
// marketplace and auction engines, together with the two payout strategies
// used to distribute the split: push transfers of the native currency out of a
// module escrow, and allowance-based pulls of a fungible payment token.
package settlement

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	// FeeDenominator expresses platform fees in tenths of a percent.
	FeeDenominator = 1000
	// RoyaltyDenominator expresses royalties in basis points.
	RoyaltyDenominator = 10_000
	// MaxRoyaltyBps caps royalties at 10%.
	MaxRoyaltyBps = 1000
)

var (
	ErrNegativeAmount  = errors.New("settlement: amount must be non-negative")
	ErrFeesExceedGross = errors.New("settlement: fees exceed sale amount")
)

var (
	feeDenominator     = big.NewInt(FeeDenominator)
	royaltyDenominator = big.NewInt(RoyaltyDenominator)
)

// Parties identifies the recipients of a settlement.
type Parties struct {
	Seller           [20]byte
	FeeRecipient     [20]byte
	RoyaltyRecipient [20]byte
}

// Breakdown is the three-way split of a gross sale amount.
type Breakdown struct {
	Parties
	Gross    *big.Int
	Platform *big.Int
	Royalty  *big.Int
	Seller   *big.Int
}

// Total returns Platform + Royalty + Seller, which always equals Gross for a
// breakdown produced by Split.
func (b *Breakdown) Total() *big.Int {
	total := new(big.Int).Add(b.Platform, b.Royalty)
	return total.Add(total, b.Seller)
}

// PlatformCut returns gross * rate / 1000, truncated toward zero.
func PlatformCut(gross, rate *big.Int) *big.Int {
	if gross == nil || rate == nil || gross.Sign() <= 0 || rate.Sign() <= 0 {
		return big.NewInt(0)
	}
	cut := new(big.Int).Mul(gross, rate)
	return cut.Quo(cut, feeDenominator)
}

// RoyaltyCut returns price * bps / 10000, truncated toward zero.
func RoyaltyCut(price *big.Int, bps uint64) *big.Int {
	if price == nil || price.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	cut := new(big.Int).Mul(price, new(big.Int).SetUint64(bps))
	return cut.Quo(cut, royaltyDenominator)
}

// Split computes the settlement of gross given the platform fee rate and the
// royalty quoted by the asset. A royalty without a recipient is dropped and
// stays with the seller.
func Split(gross, rate *big.Int, parties Parties, royalty *big.Int) (*Breakdown, error) {
	if gross == nil || gross.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if royalty != nil && royalty.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	platform := PlatformCut(gross, rate)
	royaltyCut := big.NewInt(0)
	if royalty != nil && parties.RoyaltyRecipient != ([20]byte{}) {
		royaltyCut = new(big.Int).Set(royalty)
	}
	fees := new(big.Int).Add(platform, royaltyCut)
	if fees.Cmp(gross) > 0 {
		return nil, fmt.Errorf("%w: platform %s royalty %s gross %s", ErrFeesExceedGross, platform, royaltyCut, gross)
	}
	return &Breakdown{
		Parties:  parties,
		Gross:    new(big.Int).Set(gross),
		Platform: platform,
		Royalty:  royaltyCut,
		Seller:   new(big.Int).Sub(gross, fees),
	}, nil
}

type leg struct {
	to     [20]byte
	amount *big.Int
}

func (b *Breakdown) legs() []leg {
	return []leg{
		{to: b.FeeRecipient, amount: b.Platform},
		{to: b.RoyaltyRecipient, amount: b.Royalty},
		{to: b.Parties.Seller, amount: b.Seller},
	}
}

// NativeLedger moves the native currency between accounts.
type NativeLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Push pays every non-zero leg of the breakdown out of the escrow account.
func Push(ledger NativeLedger, escrow [20]byte, b *Breakdown) error {
	if ledger == nil || b == nil {
		return errors.New("settlement: ledger and breakdown required")
	}
	for _, l := range b.legs() {
		if l.amount == nil || l.amount.Sign() == 0 {
			continue
		}
		if err := ledger.Transfer(escrow, l.to, l.amount); err != nil {
			return fmt.Errorf("settlement: push %s: %w", l.amount, err)
		}
	}
	return nil
}

// TokenLedger moves a fungible token on behalf of a spender holding an
// allowance.
type TokenLedger interface {
	TransferFrom(spender, from, to [20]byte, amount *big.Int) error
}

// Pull pays every non-zero leg of the breakdown directly from the payer's
// token balance using the spender's allowance.
func Pull(token TokenLedger, spender, payer [20]byte, b *Breakdown) error {
	if token == nil || b == nil {
		return errors.New("settlement: token and breakdown required")
	}
	for _, l := range b.legs() {
		if l.amount == nil || l.amount.Sign() == 0 {
			continue
		}
		if err := token.TransferFrom(spender, payer, l.to, l.amount); err != nil {
			return fmt.Errorf("settlement: pull %s: %w", l.amount, err)
		}
	}
	return nil
}

// core/genesis/spec.go
package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"nftmarket/crypto"
	"nftmarket/native/auction"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
)

// GenesisSpec describes the initial state written on first start.
type GenesisSpec struct {
	GenesisTime      string                `json:"genesisTime,omitempty" toml:"GenesisTime" yaml:"genesisTime"`
	Owner            string                `json:"owner" toml:"Owner" yaml:"owner"`
	FeeRecipient     string                `json:"feeRecipient,omitempty" toml:"FeeRecipient" yaml:"feeRecipient"`
	MarketplaceFee   *uint64               `json:"marketplaceFee,omitempty" toml:"MarketplaceFee" yaml:"marketplaceFee"`
	AuctionFee       *uint64               `json:"auctionFee,omitempty" toml:"AuctionFee" yaml:"auctionFee"`
	FactoryFee       string                `json:"factoryFee,omitempty" toml:"FactoryFee" yaml:"factoryFee"`
	PublicCollection *PublicCollectionSpec `json:"publicCollection,omitempty" toml:"PublicCollection" yaml:"publicCollection"`
	Alloc            map[string]string     `json:"alloc,omitempty" toml:"Alloc" yaml:"alloc"` // addr -> wei

	genesisTimestamp time.Time
	owner            [20]byte
	feeRecipient     [20]byte
	factoryFee       *big.Int
	mintFee          *big.Int
	alloc            []Allocation
}

// PublicCollectionSpec configures the collection anyone may mint into.
type PublicCollectionSpec struct {
	Name       string `json:"name" toml:"Name" yaml:"name"`
	Symbol     string `json:"symbol" toml:"Symbol" yaml:"symbol"`
	RoyaltyBps uint64 `json:"royaltyBps" toml:"RoyaltyBps" yaml:"royaltyBps"`
	MintFee    string `json:"mintFee,omitempty" toml:"MintFee" yaml:"mintFee"`
}

// Allocation is a resolved native balance credited at genesis.
type Allocation struct {
	Address [20]byte
	Amount  *big.Int
}

// DefaultPublicCollection mirrors the collection shipped with the original
// deployment scripts.
func DefaultPublicCollection() *PublicCollectionSpec {
	return &PublicCollectionSpec{Name: "collection", Symbol: "CL", RoyaltyBps: 100}
}

func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode genesis spec %q: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis spec %q: %w", path, err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }
func (s *GenesisSpec) OwnerAddress() [20]byte      { return s.owner }

// FeeRecipientAddress falls back to the owner when no recipient was given.
func (s *GenesisSpec) FeeRecipientAddress() [20]byte {
	if crypto.IsZero(s.feeRecipient) {
		return s.owner
	}
	return s.feeRecipient
}

func (s *GenesisSpec) MarketplaceFeeValue() *big.Int {
	if s.MarketplaceFee == nil {
		return big.NewInt(marketplace.DefaultPlatformFee)
	}
	return new(big.Int).SetUint64(*s.MarketplaceFee)
}

func (s *GenesisSpec) AuctionFeeValue() *big.Int {
	if s.AuctionFee == nil {
		return big.NewInt(auction.DefaultPlatformFee)
	}
	return new(big.Int).SetUint64(*s.AuctionFee)
}

func (s *GenesisSpec) FactoryFeeValue() *big.Int {
	if s.factoryFee == nil {
		return new(big.Int).Set(factory.DefaultPlatformFee)
	}
	return new(big.Int).Set(s.factoryFee)
}

func (s *GenesisSpec) PublicCollectionValue() *PublicCollectionSpec {
	if s.PublicCollection == nil {
		return DefaultPublicCollection()
	}
	return s.PublicCollection
}

func (s *GenesisSpec) MintFeeValue() *big.Int {
	if s.mintFee == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(s.mintFee)
}

// Allocations returns the resolved allocations sorted by address.
func (s *GenesisSpec) Allocations() []Allocation {
	out := make([]Allocation, len(s.alloc))
	for i, a := range s.alloc {
		out[i] = Allocation{Address: a.Address, Amount: new(big.Int).Set(a.Amount)}
	}
	return out
}

// Validate checks the spec and caches the parsed values.
func (s *GenesisSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if strings.TrimSpace(s.GenesisTime) != "" {
		ts, err := parseGenesisTime(s.GenesisTime)
		if err != nil {
			return err
		}
		s.genesisTimestamp = ts
	}
	owner, err := crypto.ParseAddress(s.Owner)
	if err != nil {
		return fmt.Errorf("owner: %w", err)
	}
	if crypto.IsZero(owner) {
		return fmt.Errorf("owner must not be the zero address")
	}
	s.owner = owner
	s.feeRecipient = [20]byte{}
	if strings.TrimSpace(s.FeeRecipient) != "" {
		recipient, err := crypto.ParseAddress(s.FeeRecipient)
		if err != nil {
			return fmt.Errorf("feeRecipient: %w", err)
		}
		s.feeRecipient = recipient
	}
	if s.MarketplaceFee != nil && *s.MarketplaceFee > 1000 {
		return fmt.Errorf("marketplaceFee must not exceed 1000")
	}
	if s.AuctionFee != nil && *s.AuctionFee > 1000 {
		return fmt.Errorf("auctionFee must not exceed 1000")
	}
	s.factoryFee = nil
	if strings.TrimSpace(s.FactoryFee) != "" {
		fee, err := parseAmountString(s.FactoryFee)
		if err != nil {
			return fmt.Errorf("factoryFee: %w", err)
		}
		s.factoryFee = fee
	}
	public := s.PublicCollectionValue()
	if strings.TrimSpace(public.Name) == "" || strings.TrimSpace(public.Symbol) == "" {
		return fmt.Errorf("publicCollection name and symbol must be provided")
	}
	if public.RoyaltyBps > nft.MaxRoyaltyBps {
		return fmt.Errorf("publicCollection royaltyBps must not exceed %d", nft.MaxRoyaltyBps)
	}
	mintFee, err := parseAmountString(public.MintFee)
	if err != nil {
		return fmt.Errorf("publicCollection mintFee: %w", err)
	}
	s.mintFee = mintFee

	s.alloc = s.alloc[:0]
	seen := make(map[[20]byte]struct{}, len(s.Alloc))
	for rawAddr, rawAmount := range s.Alloc {
		addr, err := crypto.ParseAddress(rawAddr)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", rawAddr, err)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("alloc %q listed twice", rawAddr)
		}
		seen[addr] = struct{}{}
		amount, err := parseAmountString(rawAmount)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", rawAddr, err)
		}
		if amount.Sign() == 0 {
			continue
		}
		s.alloc = append(s.alloc, Allocation{Address: addr, Amount: amount})
	}
	sort.Slice(s.alloc, func(i, j int) bool {
		return bytes.Compare(s.alloc[i].Address[:], s.alloc[j].Address[:]) < 0
	})
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}

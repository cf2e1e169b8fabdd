package rpc

import (
	"math/big"

	"nftmarket/core"
	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/auction"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
	"nftmarket/native/settlement"
	"nftmarket/native/token"
)

// ReceiptResult reflects a committed call.
type ReceiptResult struct {
	Module    string         `json:"module"`
	Method    string         `json:"method"`
	Caller    string         `json:"caller"`
	Timestamp int64          `json:"timestamp"`
	Nonce     uint64         `json:"nonce"`
	Result    interface{}    `json:"result,omitempty"`
	Events    []*types.Event `json:"events"`
}

// SettlementResult itemises where the proceeds of a sale went.
type SettlementResult struct {
	Seller           string `json:"seller"`
	FeeRecipient     string `json:"feeRecipient"`
	RoyaltyRecipient string `json:"royaltyRecipient,omitempty"`
	Gross            string `json:"gross"`
	PlatformFee      string `json:"platformFee"`
	Royalty          string `json:"royalty"`
	SellerProceeds   string `json:"sellerProceeds"`
}

type MintResult struct {
	TokenID uint64 `json:"tokenId"`
}

type CollectionCreatedResult struct {
	Collection string `json:"collection"`
}

type PauseResult struct {
	Paused bool `json:"paused"`
}

type AccountResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

type TokenMetadataResult struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
}

type CollectionResult struct {
	Address          string `json:"address"`
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	Owner            string `json:"owner"`
	RoyaltyRecipient string `json:"royaltyRecipient,omitempty"`
	RoyaltyBps       uint64 `json:"royaltyBps"`
	NextTokenID      uint64 `json:"nextTokenId"`
	Public           bool   `json:"public"`
	MintFee          string `json:"mintFee,omitempty"`
}

type NFTResult struct {
	Collection       string `json:"collection"`
	TokenID          uint64 `json:"tokenId"`
	Owner            string `json:"owner"`
	Approved         string `json:"approved,omitempty"`
	URI              string `json:"uri"`
	Creator          string `json:"creator"`
	RoyaltyRecipient string `json:"royaltyRecipient,omitempty"`
	RoyaltyBps       uint64 `json:"royaltyBps,omitempty"`
}

type RoyaltyInfoResult struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

type ConfigResult struct {
	Owner           string `json:"owner"`
	PlatformFee     string `json:"platformFee"`
	FeeRecipient    string `json:"feeRecipient"`
	AddressRegistry string `json:"addressRegistry,omitempty"`
	Paused          *bool  `json:"paused,omitempty"`
}

type ListingResult struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
	Seller  string `json:"seller"`
	Price   string `json:"price"`
	Listed  bool   `json:"listed"`
}

type OfferResult struct {
	Asset      string `json:"asset"`
	TokenID    uint64 `json:"tokenId"`
	Offerer    string `json:"offerer"`
	Amount     string `json:"amount"`
	Expiration int64  `json:"expiration"`
}

type AuctionResult struct {
	Asset      string `json:"asset"`
	TokenID    uint64 `json:"tokenId"`
	Owner      string `json:"owner"`
	MinimumBid string `json:"minimumBid"`
	StartTime  int64  `json:"startTime"`
	EndTime    int64  `json:"endTime"`
	Exists     bool   `json:"exists"`
}

type BidResult struct {
	Asset    string `json:"asset"`
	TokenID  uint64 `json:"tokenId"`
	Bidder   string `json:"bidder"`
	Amount   string `json:"amount"`
	PlacedAt int64  `json:"placedAt"`
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddr(addr [20]byte) string { return crypto.HexAddress(addr) }

func formatOptionalAddr(addr [20]byte) string {
	if crypto.IsZero(addr) {
		return ""
	}
	return crypto.HexAddress(addr)
}

func newReceiptResult(r *core.Receipt) *ReceiptResult {
	events := r.Events
	if events == nil {
		events = []*types.Event{}
	}
	return &ReceiptResult{
		Module:    r.Module,
		Method:    r.Method,
		Caller:    formatAddr(r.Caller),
		Timestamp: r.Timestamp,
		Nonce:     r.Nonce,
		Result:    callResult(r.Result),
		Events:    events,
	}
}

func callResult(result interface{}) interface{} {
	switch v := result.(type) {
	case nil:
		return nil
	case *settlement.Breakdown:
		return newSettlementResult(v)
	case uint64:
		return MintResult{TokenID: v}
	case [20]byte:
		return CollectionCreatedResult{Collection: formatAddr(v)}
	case bool:
		return PauseResult{Paused: v}
	default:
		return v
	}
}

func newSettlementResult(b *settlement.Breakdown) *SettlementResult {
	return &SettlementResult{
		Seller:           formatAddr(b.Parties.Seller),
		FeeRecipient:     formatAddr(b.FeeRecipient),
		RoyaltyRecipient: formatOptionalAddr(b.RoyaltyRecipient),
		Gross:            formatAmount(b.Gross),
		PlatformFee:      formatAmount(b.Platform),
		Royalty:          formatAmount(b.Royalty),
		SellerProceeds:   formatAmount(b.Seller),
	}
}

func newTokenMetadataResult(m *token.Metadata) *TokenMetadataResult {
	return &TokenMetadataResult{
		Address:     formatAddr(m.Address),
		Name:        m.Name,
		Symbol:      m.Symbol,
		Decimals:    m.Decimals,
		TotalSupply: formatAmount(m.TotalSupply),
	}
}

func newCollectionResult(c *nft.Collection) *CollectionResult {
	out := &CollectionResult{
		Address:          formatAddr(c.Address),
		Name:             c.Name,
		Symbol:           c.Symbol,
		Owner:            formatAddr(c.Owner),
		RoyaltyRecipient: formatOptionalAddr(c.RoyaltyRecipient),
		RoyaltyBps:       c.RoyaltyBps,
		NextTokenID:      c.NextTokenID,
		Public:           c.Public,
	}
	if c.Public {
		out.MintFee = formatAmount(c.MintFee)
	}
	return out
}

func newNFTResult(t *nft.Token) *NFTResult {
	out := &NFTResult{
		Collection: formatAddr(t.Collection),
		TokenID:    t.ID,
		Owner:      formatAddr(t.Owner),
		Approved:   formatOptionalAddr(t.Approved),
		URI:        t.URI,
		Creator:    formatAddr(t.Creator),
	}
	if t.HasRoyalty {
		out.RoyaltyRecipient = formatOptionalAddr(t.RoyaltyRecipient)
		out.RoyaltyBps = t.RoyaltyBps
	}
	return out
}

func newMarketConfigResult(c *marketplace.Config) *ConfigResult {
	return &ConfigResult{
		Owner:           formatAddr(c.Owner),
		PlatformFee:     formatAmount(c.PlatformFee),
		FeeRecipient:    formatAddr(c.FeeRecipient),
		AddressRegistry: formatOptionalAddr(c.AddressRegistry),
	}
}

func newAuctionConfigResult(c *auction.Config) *ConfigResult {
	paused := c.Paused
	return &ConfigResult{
		Owner:           formatAddr(c.Owner),
		PlatformFee:     formatAmount(c.PlatformFee),
		FeeRecipient:    formatAddr(c.FeeRecipient),
		AddressRegistry: formatOptionalAddr(c.AddressRegistry),
		Paused:          &paused,
	}
}

func newFactoryConfigResult(c *factory.Config) *ConfigResult {
	return &ConfigResult{
		Owner:        formatAddr(c.Owner),
		PlatformFee:  formatAmount(c.PlatformFee),
		FeeRecipient: formatAddr(c.FeeRecipient),
	}
}

func newListingResult(l *marketplace.Listing) *ListingResult {
	return &ListingResult{
		Asset:   formatAddr(l.Asset),
		TokenID: l.TokenID,
		Seller:  formatOptionalAddr(l.Seller),
		Price:   formatAmount(l.Price),
		Listed:  l.Active(),
	}
}

func newOfferResult(o *marketplace.Offer) *OfferResult {
	return &OfferResult{
		Asset:      formatAddr(o.Asset),
		TokenID:    o.TokenID,
		Offerer:    formatAddr(o.Offerer),
		Amount:     formatAmount(o.Amount),
		Expiration: o.Expiration,
	}
}

func newAuctionResult(a *auction.Auction) *AuctionResult {
	return &AuctionResult{
		Asset:      formatAddr(a.Asset),
		TokenID:    a.TokenID,
		Owner:      formatOptionalAddr(a.Owner),
		MinimumBid: formatAmount(a.MinimumBid),
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Exists:     a.Exists(),
	}
}

func newBidResult(b *auction.HighestBid) *BidResult {
	return &BidResult{
		Asset:    formatAddr(b.Asset),
		TokenID:  b.TokenID,
		Bidder:   formatOptionalAddr(b.Bidder),
		Amount:   formatAmount(b.Amount),
		PlacedAt: b.PlacedAt,
	}
}

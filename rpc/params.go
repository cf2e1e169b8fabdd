package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"nftmarket/core"
	"nftmarket/crypto"
)

// Parameters travel as a single JSON object. Addresses are 0x hex strings and
// amounts are wei as decimal or 0x hex strings.

type argsParser[P any] interface {
	parse() (P, error)
}

func decodeObject(raw json.RawMessage, dst interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// decodeArgs decodes raw into A and converts it into the call parameters P.
func decodeArgs[A argsParser[P], P any](raw json.RawMessage) (interface{}, error) {
	var args A
	if err := decodeObject(raw, &args); err != nil {
		return nil, err
	}
	params, err := args.parse()
	if err != nil {
		return nil, err
	}
	return params, nil
}

func parseAddr(field, value string) ([20]byte, error) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

// parseOptionalAddr accepts an empty value as the zero address so the module
// can apply its own empty-recipient rules.
func parseOptionalAddr(field, value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	return parseAddr(field, value)
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%s required", field)
	}
	return parseWei(field, trimmed)
}

func parseOptionalAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	return parseWei(field, trimmed)
}

func parseWei(field, value string) (*big.Int, error) {
	amount := new(big.Int)
	var ok bool
	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, "0x"):
		_, ok = amount.SetString(lower[2:], 16)
	case strings.HasPrefix(lower, "-0x"):
		_, ok = amount.SetString(lower[3:], 16)
		amount.Neg(amount)
	default:
		_, ok = amount.SetString(value, 10)
	}
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, value)
	}
	return amount, nil
}

type itemArgs struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
}

func (a itemArgs) parse() (core.ItemParams, error) {
	asset, err := parseAddr("asset", a.Asset)
	if err != nil {
		return core.ItemParams{}, err
	}
	return core.ItemParams{Asset: asset, TokenID: a.TokenID}, nil
}

type listingArgs struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
	Price   string `json:"price"`
}

func (a listingArgs) parse() (core.ListingParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.ListingParams{}, err
	}
	price, err := parseAmount("price", a.Price)
	if err != nil {
		return core.ListingParams{}, err
	}
	return core.ListingParams{Asset: item.Asset, TokenID: item.TokenID, Price: price}, nil
}

type offerArgs struct {
	Asset      string `json:"asset"`
	TokenID    uint64 `json:"tokenId"`
	Amount     string `json:"amount"`
	Expiration int64  `json:"expiration"`
}

func (a offerArgs) parse() (core.OfferParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.OfferParams{}, err
	}
	amount, err := parseAmount("amount", a.Amount)
	if err != nil {
		return core.OfferParams{}, err
	}
	return core.OfferParams{Asset: item.Asset, TokenID: item.TokenID, Amount: amount, Expiration: a.Expiration}, nil
}

type acceptOfferArgs struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
	Offerer string `json:"offerer"`
}

func (a acceptOfferArgs) parse() (core.AcceptOfferParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.AcceptOfferParams{}, err
	}
	offerer, err := parseAddr("offerer", a.Offerer)
	if err != nil {
		return core.AcceptOfferParams{}, err
	}
	return core.AcceptOfferParams{Asset: item.Asset, TokenID: item.TokenID, Offerer: offerer}, nil
}

type auctionArgs struct {
	Asset      string `json:"asset"`
	TokenID    uint64 `json:"tokenId"`
	MinimumBid string `json:"minimumBid"`
	StartTime  int64  `json:"startTime"`
	EndTime    int64  `json:"endTime"`
}

func (a auctionArgs) parse() (core.AuctionParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.AuctionParams{}, err
	}
	minBid, err := parseOptionalAmount("minimumBid", a.MinimumBid)
	if err != nil {
		return core.AuctionParams{}, err
	}
	return core.AuctionParams{
		Asset:      item.Asset,
		TokenID:    item.TokenID,
		MinimumBid: minBid,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
	}, nil
}

type minBidArgs struct {
	Asset      string `json:"asset"`
	TokenID    uint64 `json:"tokenId"`
	MinimumBid string `json:"minimumBid"`
}

func (a minBidArgs) parse() (core.MinBidParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.MinBidParams{}, err
	}
	minBid, err := parseAmount("minimumBid", a.MinimumBid)
	if err != nil {
		return core.MinBidParams{}, err
	}
	return core.MinBidParams{Asset: item.Asset, TokenID: item.TokenID, MinimumBid: minBid}, nil
}

type timeArgs struct {
	Asset   string `json:"asset"`
	TokenID uint64 `json:"tokenId"`
	Time    int64  `json:"time"`
}

func (a timeArgs) parse() (core.TimeParams, error) {
	item, err := itemArgs{Asset: a.Asset, TokenID: a.TokenID}.parse()
	if err != nil {
		return core.TimeParams{}, err
	}
	return core.TimeParams{Asset: item.Asset, TokenID: item.TokenID, Time: a.Time}, nil
}

type feeArgs struct {
	Fee string `json:"fee"`
}

func (a feeArgs) parse() (core.FeeParams, error) {
	fee, err := parseAmount("fee", a.Fee)
	if err != nil {
		return core.FeeParams{}, err
	}
	return core.FeeParams{Fee: fee}, nil
}

type addressArgs struct {
	Address string `json:"address"`
}

func (a addressArgs) parse() (core.AddressParams, error) {
	addr, err := parseOptionalAddr("address", a.Address)
	if err != nil {
		return core.AddressParams{}, err
	}
	return core.AddressParams{Address: addr}, nil
}

type roleArgs struct {
	Role    string `json:"role"`
	Address string `json:"address"`
}

func (a roleArgs) parse() (core.RoleParams, error) {
	role := strings.TrimSpace(a.Role)
	if role == "" {
		return core.RoleParams{}, fmt.Errorf("role required")
	}
	addr, err := parseOptionalAddr("address", a.Address)
	if err != nil {
		return core.RoleParams{}, err
	}
	return core.RoleParams{Role: role, Address: addr}, nil
}

type amountArgs struct {
	Amount string `json:"amount"`
}

func (a amountArgs) parse() (core.AmountParams, error) {
	amount, err := parseAmount("amount", a.Amount)
	if err != nil {
		return core.AmountParams{}, err
	}
	return core.AmountParams{Amount: amount}, nil
}

type tokenApproveArgs struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (a tokenApproveArgs) parse() (core.TokenApproveParams, error) {
	spender, err := parseAddr("spender", a.Spender)
	if err != nil {
		return core.TokenApproveParams{}, err
	}
	amount, err := parseAmount("amount", a.Amount)
	if err != nil {
		return core.TokenApproveParams{}, err
	}
	return core.TokenApproveParams{Spender: spender, Amount: amount}, nil
}

type tokenTransferArgs struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (a tokenTransferArgs) parse() (core.TokenTransferParams, error) {
	from, err := parseOptionalAddr("from", a.From)
	if err != nil {
		return core.TokenTransferParams{}, err
	}
	to, err := parseAddr("to", a.To)
	if err != nil {
		return core.TokenTransferParams{}, err
	}
	amount, err := parseAmount("amount", a.Amount)
	if err != nil {
		return core.TokenTransferParams{}, err
	}
	return core.TokenTransferParams{From: from, To: to, Amount: amount}, nil
}

type mintArgs struct {
	Collection string `json:"collection"`
	URI        string `json:"uri"`
}

func (a mintArgs) parse() (core.MintParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.MintParams{}, err
	}
	return core.MintParams{Collection: collection, URI: a.URI}, nil
}

type publicMintArgs struct {
	URI        string `json:"uri"`
	RoyaltyBps uint64 `json:"royaltyBps"`
}

func (a publicMintArgs) parse() (core.PublicMintParams, error) {
	return core.PublicMintParams{URI: a.URI, RoyaltyBps: a.RoyaltyBps}, nil
}

type nftApproveArgs struct {
	Collection string `json:"collection"`
	To         string `json:"to"`
	TokenID    uint64 `json:"tokenId"`
}

func (a nftApproveArgs) parse() (core.NFTApproveParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.NFTApproveParams{}, err
	}
	to, err := parseOptionalAddr("to", a.To)
	if err != nil {
		return core.NFTApproveParams{}, err
	}
	return core.NFTApproveParams{Collection: collection, To: to, TokenID: a.TokenID}, nil
}

type operatorArgs struct {
	Collection string `json:"collection"`
	Operator   string `json:"operator"`
	Approved   bool   `json:"approved"`
}

func (a operatorArgs) parse() (core.OperatorParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.OperatorParams{}, err
	}
	operator, err := parseAddr("operator", a.Operator)
	if err != nil {
		return core.OperatorParams{}, err
	}
	return core.OperatorParams{Collection: collection, Operator: operator, Approved: a.Approved}, nil
}

type nftTransferArgs struct {
	Collection string `json:"collection"`
	From       string `json:"from"`
	To         string `json:"to"`
	TokenID    uint64 `json:"tokenId"`
}

func (a nftTransferArgs) parse() (core.NFTTransferParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.NFTTransferParams{}, err
	}
	from, err := parseAddr("from", a.From)
	if err != nil {
		return core.NFTTransferParams{}, err
	}
	to, err := parseOptionalAddr("to", a.To)
	if err != nil {
		return core.NFTTransferParams{}, err
	}
	return core.NFTTransferParams{Collection: collection, From: from, To: to, TokenID: a.TokenID}, nil
}

type royaltyArgs struct {
	Collection string `json:"collection"`
	Recipient  string `json:"recipient"`
	Bps        uint64 `json:"bps"`
}

func (a royaltyArgs) parse() (core.RoyaltyParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.RoyaltyParams{}, err
	}
	recipient, err := parseOptionalAddr("recipient", a.Recipient)
	if err != nil {
		return core.RoyaltyParams{}, err
	}
	return core.RoyaltyParams{Collection: collection, Recipient: recipient, Bps: a.Bps}, nil
}

type collectionArgs struct {
	Collection string `json:"collection"`
}

func (a collectionArgs) parse() (core.CollectionParams, error) {
	collection, err := parseAddr("collection", a.Collection)
	if err != nil {
		return core.CollectionParams{}, err
	}
	return core.CollectionParams{Collection: collection}, nil
}

type createCollectionArgs struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	RoyaltyBps       uint64 `json:"royaltyBps"`
	RoyaltyRecipient string `json:"royaltyRecipient"`
}

func (a createCollectionArgs) parse() (core.CreateCollectionParams, error) {
	recipient, err := parseOptionalAddr("royaltyRecipient", a.RoyaltyRecipient)
	if err != nil {
		return core.CreateCollectionParams{}, err
	}
	return core.CreateCollectionParams{
		Name:             a.Name,
		Symbol:           a.Symbol,
		RoyaltyBps:       a.RoyaltyBps,
		RoyaltyRecipient: recipient,
	}, nil
}

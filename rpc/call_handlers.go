package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"nftmarket/core"
	"nftmarket/native/common"
	"nftmarket/rpc/middleware"
)

type paramsDecoder func(raw json.RawMessage) (interface{}, error)

type callRoute struct {
	module string
	method string
	decode paramsDecoder
}

func noArgs(raw json.RawMessage) (interface{}, error) {
	var empty struct{}
	if err := decodeObject(raw, &empty); err != nil {
		return nil, err
	}
	return nil, nil
}

// callRoutes maps every state-changing module method onto its JSON decoder.
// The RPC method name is "<module>_<method>".
var callRoutes = []callRoute{
	{common.ModuleRegistry, "update", decodeArgs[roleArgs, core.RoleParams]},
	{common.ModuleRegistry, "updateMarketplace", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleRegistry, "updateAuction", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleRegistry, "updateNFT", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleRegistry, "updateNFTFactory", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleRegistry, "updateWETH", decodeArgs[addressArgs, core.AddressParams]},

	{common.ModuleToken, "deposit", noArgs},
	{common.ModuleToken, "withdraw", decodeArgs[amountArgs, core.AmountParams]},
	{common.ModuleToken, "approve", decodeArgs[tokenApproveArgs, core.TokenApproveParams]},
	{common.ModuleToken, "transfer", decodeArgs[tokenTransferArgs, core.TokenTransferParams]},
	{common.ModuleToken, "transferFrom", decodeArgs[tokenTransferArgs, core.TokenTransferParams]},

	{common.ModuleNFT, "mint", decodeArgs[mintArgs, core.MintParams]},
	{common.ModuleNFT, "publicMint", decodeArgs[publicMintArgs, core.PublicMintParams]},
	{common.ModuleNFT, "approve", decodeArgs[nftApproveArgs, core.NFTApproveParams]},
	{common.ModuleNFT, "setApprovalForAll", decodeArgs[operatorArgs, core.OperatorParams]},
	{common.ModuleNFT, "transferFrom", decodeArgs[nftTransferArgs, core.NFTTransferParams]},
	{common.ModuleNFT, "updateRoyalty", decodeArgs[royaltyArgs, core.RoyaltyParams]},
	{common.ModuleNFT, "removeRoyalty", decodeArgs[collectionArgs, core.CollectionParams]},
	{common.ModuleNFT, "updateMintFee", decodeArgs[feeArgs, core.FeeParams]},

	{common.ModuleFactory, "createCollection", decodeArgs[createCollectionArgs, core.CreateCollectionParams]},
	{common.ModuleFactory, "updatePlatformFee", decodeArgs[feeArgs, core.FeeParams]},
	{common.ModuleFactory, "updateFeeRecipient", decodeArgs[addressArgs, core.AddressParams]},

	{common.ModuleMarketplace, "listItem", decodeArgs[listingArgs, core.ListingParams]},
	{common.ModuleMarketplace, "updateListing", decodeArgs[listingArgs, core.ListingParams]},
	{common.ModuleMarketplace, "cancelListing", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleMarketplace, "buyItem", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleMarketplace, "createOffer", decodeArgs[offerArgs, core.OfferParams]},
	{common.ModuleMarketplace, "cancelOffer", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleMarketplace, "acceptOffer", decodeArgs[acceptOfferArgs, core.AcceptOfferParams]},
	{common.ModuleMarketplace, "updatePlatformFee", decodeArgs[feeArgs, core.FeeParams]},
	{common.ModuleMarketplace, "updateFeeRecipient", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleMarketplace, "updateAddressRegistry", decodeArgs[addressArgs, core.AddressParams]},

	{common.ModuleAuction, "createAuction", decodeArgs[auctionArgs, core.AuctionParams]},
	{common.ModuleAuction, "placeBid", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleAuction, "withdrawBid", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleAuction, "cancelAuction", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleAuction, "updateMinBid", decodeArgs[minBidArgs, core.MinBidParams]},
	{common.ModuleAuction, "updateStartTime", decodeArgs[timeArgs, core.TimeParams]},
	{common.ModuleAuction, "updateEndTime", decodeArgs[timeArgs, core.TimeParams]},
	{common.ModuleAuction, "resultAuction", decodeArgs[itemArgs, core.ItemParams]},
	{common.ModuleAuction, "togglePause", noArgs},
	{common.ModuleAuction, "updatePlatformFee", decodeArgs[feeArgs, core.FeeParams]},
	{common.ModuleAuction, "updateFeeRecipient", decodeArgs[addressArgs, core.AddressParams]},
	{common.ModuleAuction, "updateAddressRegistry", decodeArgs[addressArgs, core.AddressParams]},
}

func callMethodName(module, method string) string { return module + "_" + method }

func (s *Server) registerCalls() {
	for _, route := range callRoutes {
		route := route
		s.methods[callMethodName(route.module, route.method)] = func(ctx context.Context, raw json.RawMessage) (interface{}, *RPCError) {
			return s.execute(ctx, route, raw)
		}
	}
}

func (s *Server) execute(ctx context.Context, route callRoute, raw json.RawMessage) (interface{}, *RPCError) {
	caller, ok := middleware.CallerFromContext(ctx)
	if !ok {
		return nil, &RPCError{Code: codeUnauthorized, Message: "caller token required"}
	}
	value, rest, err := splitValue(raw)
	if err != nil {
		return nil, invalidParams(err)
	}
	params, err := route.decode(rest)
	if err != nil {
		return nil, invalidParams(err)
	}
	receipt, err := s.node.Execute(ctx, core.Call{
		Caller: caller,
		Value:  value,
		Module: route.module,
		Method: route.method,
		Params: params,
	})
	if err != nil {
		return nil, rpcErrorFrom(err)
	}
	return newReceiptResult(receipt), nil
}

// splitValue removes the optional "value" member from a params object and
// returns it parsed alongside the remaining members.
func splitValue(raw json.RawMessage) (*big.Int, json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, nil, fmt.Errorf("params must be an object: %w", err)
	}
	rawValue, ok := fields["value"]
	if !ok {
		return nil, trimmed, nil
	}
	delete(fields, "value")
	var text string
	if err := json.Unmarshal(rawValue, &text); err != nil {
		return nil, nil, fmt.Errorf("value must be a string")
	}
	value, err := parseOptionalAmount("value", text)
	if err != nil {
		return nil, nil, err
	}
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, nil, err
	}
	return value, rest, nil
}

// CallMethods lists the state-changing RPC methods in sorted order.
func CallMethods() []string {
	out := make([]string, 0, len(callRoutes))
	for _, route := range callRoutes {
		out = append(out, callMethodName(route.module, route.method))
	}
	sort.Strings(out)
	return out
}

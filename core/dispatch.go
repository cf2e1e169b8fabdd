package core

import (
	"math/big"
	"sort"

	"nftmarket/native/common"
)

type handlerFunc func(n *Node, call Call, value *big.Int) (any, error)

type handler struct {
	payable bool
	fn      handlerFunc
}

func callKey(module, method string) string { return module + "." + method }

var handlers = map[string]handler{
	// registry
	callKey(common.ModuleRegistry, "update"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[RoleParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.registry.Update(call.Caller, p.Role, p.Address)
	}},
	callKey(common.ModuleRegistry, "updateMarketplace"): {fn: registryRole((*Node).registryUpdateMarketplace)},
	callKey(common.ModuleRegistry, "updateAuction"):     {fn: registryRole((*Node).registryUpdateAuction)},
	callKey(common.ModuleRegistry, "updateNFT"):         {fn: registryRole((*Node).registryUpdateNFT)},
	callKey(common.ModuleRegistry, "updateNFTFactory"):  {fn: registryRole((*Node).registryUpdateNFTFactory)},
	callKey(common.ModuleRegistry, "updateWETH"):        {fn: registryRole((*Node).registryUpdateWETH)},

	// token
	callKey(common.ModuleToken, "deposit"): {payable: true, fn: func(n *Node, call Call, value *big.Int) (any, error) {
		return nil, n.token.Deposit(call.Caller, value)
	}},
	callKey(common.ModuleToken, "withdraw"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AmountParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.token.Withdraw(call.Caller, p.Amount)
	}},
	callKey(common.ModuleToken, "approve"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[TokenApproveParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.token.Approve(call.Caller, p.Spender, p.Amount)
	}},
	callKey(common.ModuleToken, "transfer"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[TokenTransferParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.token.Transfer(call.Caller, p.To, p.Amount)
	}},
	callKey(common.ModuleToken, "transferFrom"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[TokenTransferParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.token.TransferFrom(call.Caller, p.From, p.To, p.Amount)
	}},

	// nft
	callKey(common.ModuleNFT, "mint"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[MintParams](call)
		if err != nil {
			return nil, err
		}
		return n.nft.Mint(call.Caller, p.Collection, p.URI)
	}},
	callKey(common.ModuleNFT, "publicMint"): {payable: true, fn: func(n *Node, call Call, value *big.Int) (any, error) {
		p, err := decodeParams[PublicMintParams](call)
		if err != nil {
			return nil, err
		}
		return n.nft.PublicMint(call.Caller, value, p.URI, p.RoyaltyBps)
	}},
	callKey(common.ModuleNFT, "approve"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[NFTApproveParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.Approve(call.Caller, p.Collection, p.To, p.TokenID)
	}},
	callKey(common.ModuleNFT, "setApprovalForAll"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[OperatorParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.SetApprovalForAll(call.Caller, p.Collection, p.Operator, p.Approved)
	}},
	callKey(common.ModuleNFT, "transferFrom"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[NFTTransferParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.TransferFrom(call.Caller, p.Collection, p.From, p.To, p.TokenID)
	}},
	callKey(common.ModuleNFT, "updateRoyalty"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[RoyaltyParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.UpdateRoyalty(call.Caller, p.Collection, p.Recipient, p.Bps)
	}},
	callKey(common.ModuleNFT, "removeRoyalty"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[CollectionParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.RemoveRoyalty(call.Caller, p.Collection)
	}},
	callKey(common.ModuleNFT, "updateMintFee"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[FeeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.nft.UpdateMintFee(call.Caller, p.Fee)
	}},

	// factory
	callKey(common.ModuleFactory, "createCollection"): {payable: true, fn: func(n *Node, call Call, value *big.Int) (any, error) {
		p, err := decodeParams[CreateCollectionParams](call)
		if err != nil {
			return nil, err
		}
		return n.factory.CreateCollection(call.Caller, value, p.Name, p.Symbol, p.RoyaltyBps, p.RoyaltyRecipient)
	}},
	callKey(common.ModuleFactory, "updatePlatformFee"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[FeeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.factory.UpdatePlatformFee(call.Caller, p.Fee)
	}},
	callKey(common.ModuleFactory, "updateFeeRecipient"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.factory.UpdateFeeRecipient(call.Caller, p.Address)
	}},

	// marketplace
	callKey(common.ModuleMarketplace, "listItem"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ListingParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.ListItem(call.Caller, p.Asset, p.TokenID, p.Price)
	}},
	callKey(common.ModuleMarketplace, "updateListing"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ListingParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.UpdateListing(call.Caller, p.Asset, p.TokenID, p.Price)
	}},
	callKey(common.ModuleMarketplace, "cancelListing"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.CancelListing(call.Caller, p.Asset, p.TokenID)
	}},
	callKey(common.ModuleMarketplace, "buyItem"): {payable: true, fn: func(n *Node, call Call, value *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return n.market.BuyItem(call.Caller, value, p.Asset, p.TokenID)
	}},
	callKey(common.ModuleMarketplace, "createOffer"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[OfferParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.CreateOffer(call.Caller, p.Asset, p.TokenID, p.Amount, p.Expiration)
	}},
	callKey(common.ModuleMarketplace, "cancelOffer"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.CancelOffer(call.Caller, p.Asset, p.TokenID)
	}},
	callKey(common.ModuleMarketplace, "acceptOffer"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AcceptOfferParams](call)
		if err != nil {
			return nil, err
		}
		return n.market.AcceptOffer(call.Caller, p.Asset, p.TokenID, p.Offerer)
	}},
	callKey(common.ModuleMarketplace, "updatePlatformFee"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[FeeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.UpdatePlatformFee(call.Caller, p.Fee)
	}},
	callKey(common.ModuleMarketplace, "updateFeeRecipient"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.UpdateFeeRecipient(call.Caller, p.Address)
	}},
	callKey(common.ModuleMarketplace, "updateAddressRegistry"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.market.UpdateAddressRegistry(call.Caller, p.Address)
	}},

	// auction
	callKey(common.ModuleAuction, "createAuction"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AuctionParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.CreateAuction(call.Caller, p.Asset, p.TokenID, p.MinimumBid, p.StartTime, p.EndTime)
	}},
	callKey(common.ModuleAuction, "placeBid"): {payable: true, fn: func(n *Node, call Call, value *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.PlaceBid(call.Caller, value, p.Asset, p.TokenID)
	}},
	callKey(common.ModuleAuction, "withdrawBid"):   {fn: auctionItem((*Node).auctionWithdrawBid)},
	callKey(common.ModuleAuction, "cancelAuction"): {fn: auctionItem((*Node).auctionCancel)},
	callKey(common.ModuleAuction, "updateMinBid"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[MinBidParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdateMinBid(call.Caller, p.Asset, p.TokenID, p.MinimumBid)
	}},
	callKey(common.ModuleAuction, "updateStartTime"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[TimeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdateStartTime(call.Caller, p.Asset, p.TokenID, p.Time)
	}},
	callKey(common.ModuleAuction, "updateEndTime"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[TimeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdateEndTime(call.Caller, p.Asset, p.TokenID, p.Time)
	}},
	callKey(common.ModuleAuction, "resultAuction"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return n.auction.ResultAuction(call.Caller, p.Asset, p.TokenID)
	}},
	callKey(common.ModuleAuction, "togglePause"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		return n.auction.TogglePaused(call.Caller)
	}},
	callKey(common.ModuleAuction, "updatePlatformFee"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[FeeParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdatePlatformFee(call.Caller, p.Fee)
	}},
	callKey(common.ModuleAuction, "updateFeeRecipient"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdateFeeRecipient(call.Caller, p.Address)
	}},
	callKey(common.ModuleAuction, "updateAddressRegistry"): {fn: func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, n.auction.UpdateAddressRegistry(call.Caller, p.Address)
	}},
}

func registryRole(update func(n *Node, caller, addr [20]byte) error) handlerFunc {
	return func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[AddressParams](call)
		if err != nil {
			return nil, err
		}
		return nil, update(n, call.Caller, p.Address)
	}
}

func (n *Node) registryUpdateMarketplace(caller, addr [20]byte) error {
	return n.registry.UpdateMarketplace(caller, addr)
}
func (n *Node) registryUpdateAuction(caller, addr [20]byte) error {
	return n.registry.UpdateAuction(caller, addr)
}
func (n *Node) registryUpdateNFT(caller, addr [20]byte) error {
	return n.registry.UpdateNFT(caller, addr)
}
func (n *Node) registryUpdateNFTFactory(caller, addr [20]byte) error {
	return n.registry.UpdateNFTFactory(caller, addr)
}
func (n *Node) registryUpdateWETH(caller, addr [20]byte) error {
	return n.registry.UpdateWETH(caller, addr)
}

func auctionItem(op func(n *Node, caller, asset [20]byte, id uint64) error) handlerFunc {
	return func(n *Node, call Call, _ *big.Int) (any, error) {
		p, err := decodeParams[ItemParams](call)
		if err != nil {
			return nil, err
		}
		return nil, op(n, call.Caller, p.Asset, p.TokenID)
	}
}

func (n *Node) auctionWithdrawBid(caller, asset [20]byte, id uint64) error {
	return n.auction.WithdrawBid(caller, asset, id)
}
func (n *Node) auctionCancel(caller, asset [20]byte, id uint64) error {
	return n.auction.CancelAuction(caller, asset, id)
}

// Methods lists every callable "module.method" in sorted order.
func Methods() []string {
	out := make([]string, 0, len(handlers))
	for key := range handlers {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Payable reports whether module.method accepts a value.
func Payable(module, method string) bool {
	h, ok := handlers[callKey(module, method)]
	return ok && h.payable
}

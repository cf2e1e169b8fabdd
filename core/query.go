package core

import (
	"math/big"

	"nftmarket/core/types"
	"nftmarket/native/auction"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
	"nftmarket/native/token"
)

// Read-only views. They share the node lock with Execute so a query never
// observes a call in progress.

func (n *Node) Account(addr [20]byte) (*types.Account, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state.GetAccount(addr)
}

func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.state.Balance(addr)
}

func (n *Node) RegistryOwner() ([20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.registry.Owner()
}

func (n *Node) RegistryLookup(role string) ([20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.registry.Lookup(role)
}

func (n *Node) RegistryEntries() (map[string][20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.registry.Entries()
}

func (n *Node) TokenMetadata() (*token.Metadata, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.token.Metadata()
}

func (n *Node) TokenBalance(holder [20]byte) (*big.Int, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.token.BalanceOf(holder)
}

func (n *Node) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.token.Allowance(owner, spender)
}

func (n *Node) Collection(addr [20]byte) (*nft.Collection, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.Collection(addr)
}

func (n *Node) NFTToken(collection [20]byte, id uint64) (*nft.Token, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.Token(collection, id)
}

func (n *Node) NFTOwnerOf(collection [20]byte, id uint64) ([20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.OwnerOf(collection, id)
}

func (n *Node) NFTBalanceOf(collection, owner [20]byte) (uint64, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.BalanceOf(collection, owner)
}

func (n *Node) NFTGetApproved(collection [20]byte, id uint64) ([20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.GetApproved(collection, id)
}

func (n *Node) NFTIsApprovedForAll(collection, owner, operator [20]byte) (bool, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.IsApprovedForAll(collection, owner, operator)
}

// NFTRoyaltyInfo quotes the royalty owed on a sale of id at price.
func (n *Node) NFTRoyaltyInfo(collection [20]byte, id uint64, price *big.Int) ([20]byte, *big.Int, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.nft.RoyaltyInfo(collection, id, price)
}

func (n *Node) FactoryConfig() (*factory.Config, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.factory.Config()
}

func (n *Node) FactoryCollections(owner [20]byte) ([][20]byte, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.factory.CollectionsOwned(owner)
}

func (n *Node) MarketConfig() (*marketplace.Config, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.market.Config()
}

func (n *Node) MarketListing(asset [20]byte, id uint64) (*marketplace.Listing, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.market.Listing(asset, id)
}

func (n *Node) MarketOffer(asset [20]byte, id uint64, offerer [20]byte) (*marketplace.Offer, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.market.Offer(asset, id, offerer)
}

func (n *Node) AuctionConfig() (*auction.Config, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.auction.Config()
}

func (n *Node) Auction(asset [20]byte, id uint64) (*auction.Auction, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.auction.Auction(asset, id)
}

func (n *Node) AuctionHighestBid(asset [20]byte, id uint64) (*auction.HighestBid, error) {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	return n.auction.HighestBid(asset, id)
}

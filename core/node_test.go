package core

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coreerrors "nftmarket/core/errors"
	"nftmarket/core/genesis"
	"nftmarket/crypto"
	"nftmarket/native/auction"
	"nftmarket/native/common"
	"nftmarket/native/marketplace"
	"nftmarket/native/settlement"
	"nftmarket/storage"
)

var (
	ownerAddr    = crypto.MustParseAddress("0x00000000000000000000000000000000000000a1")
	treasuryAddr = crypto.MustParseAddress("0x00000000000000000000000000000000000000a2")
	sellerAddr   = crypto.MustParseAddress("0x00000000000000000000000000000000000000b1")
	buyerAddr    = crypto.MustParseAddress("0x00000000000000000000000000000000000000b2")
	bidderAddr   = crypto.MustParseAddress("0x00000000000000000000000000000000000000b3")
)

const genesisUnix = 1_700_000_000

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

// milli returns n thousandths of an ether.
func milli(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000))
}

type testClock struct{ now int64 }

func (c *testClock) Now() time.Time          { return time.Unix(c.now, 0) }
func (c *testClock) Advance(d time.Duration) { c.now += int64(d / time.Second) }

type harness struct {
	t     *testing.T
	node  *Node
	db    *storage.MemDB
	clock *testClock
}

func testSpec() *genesis.GenesisSpec {
	return &genesis.GenesisSpec{
		GenesisTime:  time.Unix(genesisUnix, 0).UTC().Format(time.RFC3339),
		Owner:        crypto.HexAddress(ownerAddr),
		FeeRecipient: crypto.HexAddress(treasuryAddr),
		Alloc: map[string]string{
			crypto.HexAddress(sellerAddr): ether(100).String(),
			crypto.HexAddress(buyerAddr):  ether(100).String(),
			crypto.HexAddress(bidderAddr): ether(100).String(),
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storage.NewMemDB()
	node, err := NewNode(db, testSpec())
	require.NoError(t, err)
	clock := &testClock{now: genesisUnix + 60}
	node.SetClock(clock.Now)
	return &harness{t: t, node: node, db: db, clock: clock}
}

func (h *harness) exec(caller [20]byte, value *big.Int, module, method string, params any) (*Receipt, error) {
	return h.node.Execute(context.Background(), Call{Caller: caller, Value: value, Module: module, Method: method, Params: params})
}

func (h *harness) mustExec(caller [20]byte, value *big.Int, module, method string, params any) *Receipt {
	h.t.Helper()
	receipt, err := h.exec(caller, value, module, method, params)
	require.NoError(h.t, err, "%s.%s", module, method)
	return receipt
}

func (h *harness) balance(addr [20]byte) *big.Int {
	h.t.Helper()
	bal, err := h.node.Balance(addr)
	require.NoError(h.t, err)
	return bal
}

func (h *harness) mintPublic(owner [20]byte, uri string, royaltyBps uint64) uint64 {
	h.t.Helper()
	receipt := h.mustExec(owner, nil, common.ModuleNFT, "publicMint", PublicMintParams{URI: uri, RoyaltyBps: royaltyBps})
	id, ok := receipt.Result.(uint64)
	require.True(h.t, ok)
	return id
}

func (h *harness) approveAll(owner [20]byte, module string) {
	h.t.Helper()
	h.mustExec(owner, nil, common.ModuleNFT, "setApprovalForAll", OperatorParams{
		Collection: h.node.ModuleAddress(common.ModuleNFT),
		Operator:   h.node.ModuleAddress(module),
		Approved:   true,
	})
}

// listForAuction approves the marketplace for a single token and lists it,
// which is how a seller makes a token auctionable.
func (h *harness) listForAuction(owner [20]byte, id uint64, price *big.Int) {
	h.t.Helper()
	collection := h.node.ModuleAddress(common.ModuleNFT)
	h.mustExec(owner, nil, common.ModuleNFT, "approve", NFTApproveParams{
		Collection: collection,
		To:         h.node.ModuleAddress(common.ModuleMarketplace),
		TokenID:    id,
	})
	h.mustExec(owner, nil, common.ModuleMarketplace, "listItem", ListingParams{Asset: collection, TokenID: id, Price: price})
}

func requireBig(t *testing.T, want, got *big.Int, msgAndArgs ...any) {
	t.Helper()
	require.Zero(t, want.Cmp(got), append([]any{"want %s got %s", want, got}, msgAndArgs...)...)
}

func TestGenesisWiresModules(t *testing.T) {
	h := newHarness(t)

	entries, err := h.node.RegistryEntries()
	require.NoError(t, err)
	for role, module := range genesis.RoleModules {
		require.Equal(t, crypto.ModuleAddress(module), entries[role], role)
	}
	owner, err := h.node.RegistryOwner()
	require.NoError(t, err)
	require.Equal(t, ownerAddr, owner)

	marketCfg, err := h.node.MarketConfig()
	require.NoError(t, err)
	require.Equal(t, ownerAddr, marketCfg.Owner)
	require.Equal(t, treasuryAddr, marketCfg.FeeRecipient)
	requireBig(t, big.NewInt(marketplace.DefaultPlatformFee), marketCfg.PlatformFee)
	require.Equal(t, crypto.ModuleAddress(common.ModuleRegistry), marketCfg.AddressRegistry)

	auctionCfg, err := h.node.AuctionConfig()
	require.NoError(t, err)
	requireBig(t, big.NewInt(auction.DefaultPlatformFee), auctionCfg.PlatformFee)
	require.False(t, auctionCfg.Paused)

	public, err := h.node.Collection(h.node.ModuleAddress(common.ModuleNFT))
	require.NoError(t, err)
	require.True(t, public.Public)
	require.Equal(t, ownerAddr, public.Owner)

	requireBig(t, ether(100), h.balance(sellerAddr))
}

func TestReopenKeepsState(t *testing.T) {
	h := newHarness(t)
	id := h.mintPublic(sellerAddr, "ipfs://keep", 0)

	reopened, err := NewNode(h.db, nil)
	require.NoError(t, err)
	owner, err := reopened.NFTOwnerOf(h.node.ModuleAddress(common.ModuleNFT), id)
	require.NoError(t, err)
	require.Equal(t, sellerAddr, owner)

	_, err = NewNode(storage.NewMemDB(), nil)
	require.ErrorIs(t, err, coreerrors.ErrGenesisRequired)
}

func TestBuyItemSettlesAndRefunds(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	id := h.mintPublic(sellerAddr, "ipfs://one", 0)
	h.approveAll(sellerAddr, common.ModuleMarketplace)
	h.mustExec(sellerAddr, nil, common.ModuleMarketplace, "listItem", ListingParams{Asset: collection, TokenID: id, Price: ether(1)})

	sellerBefore := h.balance(sellerAddr)
	buyerBefore := h.balance(buyerAddr)
	ownerBefore := h.balance(ownerAddr)

	receipt := h.mustExec(buyerAddr, milli(1200), common.ModuleMarketplace, "buyItem", ItemParams{Asset: collection, TokenID: id})
	breakdown, ok := receipt.Result.(*settlement.Breakdown)
	require.True(t, ok)
	requireBig(t, milli(25), breakdown.Platform)
	requireBig(t, milli(10), breakdown.Royalty)
	requireBig(t, milli(965), breakdown.Seller)

	requireBig(t, new(big.Int).Sub(buyerBefore, ether(1)), h.balance(buyerAddr), "buyer pays the price only")
	requireBig(t, new(big.Int).Add(sellerBefore, milli(965)), h.balance(sellerAddr))
	requireBig(t, milli(25), h.balance(treasuryAddr))
	requireBig(t, new(big.Int).Add(ownerBefore, milli(10)), h.balance(ownerAddr))
	requireBig(t, big.NewInt(0), h.balance(h.node.ModuleAddress(common.ModuleMarketplace)), "escrow drained")

	newOwner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, buyerAddr, newOwner)
	listing, err := h.node.MarketListing(collection, id)
	require.NoError(t, err)
	require.False(t, listing.Active())

	var sawBought bool
	for _, evt := range receipt.Events {
		if evt.Type == marketplace.EventTypeItemBought {
			sawBought = true
		}
	}
	require.True(t, sawBought)
}

func TestFailedCallRollsBack(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	id := h.mintPublic(sellerAddr, "ipfs://rollback", 0)
	h.approveAll(sellerAddr, common.ModuleMarketplace)
	h.mustExec(sellerAddr, nil, common.ModuleMarketplace, "listItem", ListingParams{Asset: collection, TokenID: id, Price: ether(1)})

	// Revoking the operator makes the token transfer fail after the listing
	// was deleted and the value escrowed.
	h.mustExec(sellerAddr, nil, common.ModuleNFT, "setApprovalForAll", OperatorParams{
		Collection: collection,
		Operator:   h.node.ModuleAddress(common.ModuleMarketplace),
		Approved:   false,
	})
	buyerBefore := h.balance(buyerAddr)
	backlog := len(h.node.Events().Backlog())

	_, err := h.exec(buyerAddr, ether(1), common.ModuleMarketplace, "buyItem", ItemParams{Asset: collection, TokenID: id})
	require.Error(t, err)

	requireBig(t, buyerBefore, h.balance(buyerAddr))
	requireBig(t, big.NewInt(0), h.balance(h.node.ModuleAddress(common.ModuleMarketplace)))
	listing, err := h.node.MarketListing(collection, id)
	require.NoError(t, err)
	require.True(t, listing.Active(), "listing restored")
	owner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, sellerAddr, owner)
	require.Len(t, h.node.Events().Backlog(), backlog, "no events published")
}

func TestAuctionLifecycle(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	id := h.mintPublic(sellerAddr, "ipfs://auction", 0)
	h.listForAuction(sellerAddr, id, ether(5))

	start := h.clock.now + 60
	end := start + 3600
	h.mustExec(sellerAddr, nil, common.ModuleAuction, "createAuction", AuctionParams{
		Asset: collection, TokenID: id, MinimumBid: ether(1), StartTime: start, EndTime: end,
	})

	_, err := h.exec(bidderAddr, ether(1), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	require.ErrorIs(t, err, auction.ErrOutOfTime)

	h.clock.Advance(2 * time.Minute)
	bidderBefore := h.balance(bidderAddr)
	h.mustExec(bidderAddr, ether(1), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	h.mustExec(buyerAddr, milli(1500), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	requireBig(t, bidderBefore, h.balance(bidderAddr), "outbid bidder refunded")

	_, err = h.exec(bidderAddr, milli(1500), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	require.ErrorIs(t, err, auction.ErrBidTooLow)

	_, err = h.exec(sellerAddr, nil, common.ModuleAuction, "resultAuction", ItemParams{Asset: collection, TokenID: id})
	require.ErrorIs(t, err, auction.ErrAuctionNotEnded)

	h.clock.now = end + 1
	sellerBefore := h.balance(sellerAddr)
	receipt := h.mustExec(sellerAddr, nil, common.ModuleAuction, "resultAuction", ItemParams{Asset: collection, TokenID: id})
	breakdown := receipt.Result.(*settlement.Breakdown)
	requireBig(t, milli(150), breakdown.Platform)
	requireBig(t, milli(15), breakdown.Royalty)
	requireBig(t, milli(1335), breakdown.Seller)
	requireBig(t, new(big.Int).Add(sellerBefore, milli(1335)), h.balance(sellerAddr))
	requireBig(t, milli(150), h.balance(treasuryAddr))
	requireBig(t, big.NewInt(0), h.balance(h.node.ModuleAddress(common.ModuleAuction)))

	owner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, buyerAddr, owner)
	a, err := h.node.Auction(collection, id)
	require.NoError(t, err)
	require.False(t, a.Exists())
	listing, err := h.node.MarketListing(collection, id)
	require.NoError(t, err)
	require.False(t, listing.Active(), "listing dropped with the sale")
}

func TestAuctionOfListedTokenSettles(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	id := h.mintPublic(sellerAddr, "ipfs://listed", 0)
	h.listForAuction(sellerAddr, id, ether(1))

	start := h.clock.now + 3600
	end := h.clock.now + 2*3600
	h.mustExec(sellerAddr, nil, common.ModuleAuction, "createAuction", AuctionParams{
		Asset: collection, TokenID: id, MinimumBid: milli(200), StartTime: start, EndTime: end,
	})
	h.clock.Advance(70 * time.Minute)
	h.mustExec(bidderAddr, milli(250), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	h.clock.Advance(3 * time.Hour)

	sellerBefore := h.balance(sellerAddr)
	receipt := h.mustExec(sellerAddr, nil, common.ModuleAuction, "resultAuction", ItemParams{Asset: collection, TokenID: id})
	breakdown := receipt.Result.(*settlement.Breakdown)
	requireBig(t, milli(250), breakdown.Total())
	requireBig(t, milli(25), breakdown.Platform)
	requireBig(t, new(big.Int).Add(sellerBefore, breakdown.Seller), h.balance(sellerAddr))
	requireBig(t, milli(25), h.balance(treasuryAddr))
	requireBig(t, big.NewInt(0), h.balance(h.node.ModuleAddress(common.ModuleAuction)), "escrow drained")

	owner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, bidderAddr, owner)
	listing, err := h.node.MarketListing(collection, id)
	require.NoError(t, err)
	require.False(t, listing.Active())

	_, err = h.exec(buyerAddr, ether(1), common.ModuleMarketplace, "buyItem", ItemParams{Asset: collection, TokenID: id})
	require.ErrorIs(t, err, marketplace.ErrItemNotListed)
}

func TestAuctionResultRollsBackOnTransferFailure(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	id := h.mintPublic(sellerAddr, "ipfs://revoked", 0)
	h.listForAuction(sellerAddr, id, ether(5))

	start := h.clock.now + 60
	end := start + 600
	h.mustExec(sellerAddr, nil, common.ModuleAuction, "createAuction", AuctionParams{
		Asset: collection, TokenID: id, MinimumBid: ether(1), StartTime: start, EndTime: end,
	})
	h.clock.now = start
	h.mustExec(bidderAddr, ether(2), common.ModuleAuction, "placeBid", ItemParams{Asset: collection, TokenID: id})
	// Moving the single token approval away from the marketplace makes the
	// hand over fail after the auction and bid were deleted.
	h.mustExec(sellerAddr, nil, common.ModuleNFT, "approve", NFTApproveParams{
		Collection: collection,
		To:         buyerAddr,
		TokenID:    id,
	})

	h.clock.now = end + 1
	_, err := h.exec(sellerAddr, nil, common.ModuleAuction, "resultAuction", ItemParams{Asset: collection, TokenID: id})
	require.Error(t, err)

	a, err := h.node.Auction(collection, id)
	require.NoError(t, err)
	require.True(t, a.Exists())
	bid, err := h.node.AuctionHighestBid(collection, id)
	require.NoError(t, err)
	require.Equal(t, bidderAddr, bid.Bidder)
	requireBig(t, ether(2), h.balance(h.node.ModuleAddress(common.ModuleAuction)), "bid still escrowed")
	owner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, sellerAddr, owner)
	listing, err := h.node.MarketListing(collection, id)
	require.NoError(t, err)
	require.True(t, listing.Active(), "listing kept")
}

func TestAcceptOfferPullsPaymentToken(t *testing.T) {
	h := newHarness(t)
	collection := h.node.ModuleAddress(common.ModuleNFT)
	marketAddr := h.node.ModuleAddress(common.ModuleMarketplace)
	id := h.mintPublic(sellerAddr, "ipfs://offer", 500)
	h.approveAll(sellerAddr, common.ModuleMarketplace)

	h.mustExec(buyerAddr, ether(2), common.ModuleToken, "deposit", nil)
	h.mustExec(buyerAddr, nil, common.ModuleToken, "approve", TokenApproveParams{Spender: marketAddr, Amount: ether(2)})
	h.mustExec(buyerAddr, nil, common.ModuleMarketplace, "createOffer", OfferParams{
		Asset: collection, TokenID: id, Amount: ether(1), Expiration: h.clock.now + 3600,
	})

	receipt := h.mustExec(sellerAddr, nil, common.ModuleMarketplace, "acceptOffer", AcceptOfferParams{
		Asset: collection, TokenID: id, Offerer: buyerAddr,
	})
	breakdown := receipt.Result.(*settlement.Breakdown)
	requireBig(t, milli(50), breakdown.Royalty, "token royalty of 5%")

	sellerTokens, err := h.node.TokenBalance(sellerAddr)
	require.NoError(t, err)
	// The seller is also the royalty recipient.
	requireBig(t, milli(975), sellerTokens)
	buyerTokens, err := h.node.TokenBalance(buyerAddr)
	require.NoError(t, err)
	requireBig(t, ether(1), buyerTokens)
	treasuryTokens, err := h.node.TokenBalance(treasuryAddr)
	require.NoError(t, err)
	requireBig(t, milli(25), treasuryTokens)

	owner, err := h.node.NFTOwnerOf(collection, id)
	require.NoError(t, err)
	require.Equal(t, buyerAddr, owner)
	offer, err := h.node.MarketOffer(collection, id, buyerAddr)
	require.NoError(t, err)
	require.False(t, offer.Exists())
}

func TestFactoryCreatesCollection(t *testing.T) {
	h := newHarness(t)
	cfg, err := h.node.FactoryConfig()
	require.NoError(t, err)
	fee := cfg.PlatformFee

	receipt := h.mustExec(sellerAddr, new(big.Int).Add(fee, big.NewInt(7)), common.ModuleFactory, "createCollection", CreateCollectionParams{
		Name: "Shapes", Symbol: "SHP", RoyaltyBps: 250, RoyaltyRecipient: sellerAddr,
	})
	addr, ok := receipt.Result.([20]byte)
	require.True(t, ok)
	require.Equal(t, crypto.CreateAddress(h.node.ModuleAddress(common.ModuleFactory), 1), addr)
	requireBig(t, fee, h.balance(treasuryAddr))

	owned, err := h.node.FactoryCollections(sellerAddr)
	require.NoError(t, err)
	require.Equal(t, [][20]byte{addr}, owned)

	receipt = h.mustExec(sellerAddr, nil, common.ModuleNFT, "mint", MintParams{Collection: addr, URI: "ipfs://shape/1"})
	require.Equal(t, uint64(1), receipt.Result)
}

func TestExecuteRejectsMalformedCalls(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec(sellerAddr, nil, common.ModuleMarketplace, "steal", nil)
	require.ErrorIs(t, err, coreerrors.ErrUnknownMethod)

	_, err = h.exec(sellerAddr, ether(1), common.ModuleMarketplace, "listItem", ListingParams{})
	require.ErrorIs(t, err, coreerrors.ErrNotPayable)

	_, err = h.exec(sellerAddr, nil, common.ModuleMarketplace, "listItem", ItemParams{})
	require.ErrorIs(t, err, coreerrors.ErrInvalidParams)

	_, err = h.exec(sellerAddr, big.NewInt(-1), common.ModuleToken, "deposit", nil)
	require.ErrorIs(t, err, coreerrors.ErrNegativeValue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.node.Execute(ctx, Call{Caller: sellerAddr, Module: common.ModuleToken, Method: "deposit"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestModulePauseGuard(t *testing.T) {
	h := newHarness(t)
	h.node.SetPauses(common.PauseSet{common.ModuleNFT: true})

	_, err := h.exec(sellerAddr, nil, common.ModuleNFT, "publicMint", PublicMintParams{URI: "ipfs://paused"})
	require.ErrorIs(t, err, common.ErrModulePaused)

	h.node.SetPauses(nil)
	h.mintPublic(sellerAddr, "ipfs://resumed", 0)
}

func TestClockNeverMovesBackwards(t *testing.T) {
	h := newHarness(t)
	first := h.mustExec(sellerAddr, nil, common.ModuleNFT, "publicMint", PublicMintParams{URI: "ipfs://a"})
	h.clock.now -= 3600
	second := h.mustExec(sellerAddr, nil, common.ModuleNFT, "publicMint", PublicMintParams{URI: "ipfs://b"})
	require.Equal(t, first.Timestamp, second.Timestamp)
	require.Equal(t, first.Nonce+1, second.Nonce)
}

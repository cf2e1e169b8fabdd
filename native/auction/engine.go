// Package auction implements per-token English auctions with native currency
// bids escrowed at the module address. Time driven transitions are evaluated
// lazily against the call time; nothing resolves on its own.
package auction

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/settlement"
)

var (
	errNilState = errors.New("auction engine: state not configured")
	errNilDeps  = errors.New("auction engine: assets, market or ledger not configured")

	ErrNotOwner              = errors.New("not owner")
	ErrPaused                = errors.New("contract is paused")
	ErrNotTokenOwner         = errors.New("not the token owner")
	ErrItemNotListed         = errors.New("item is not listed")
	ErrAuctionExists         = errors.New("auction already exists")
	ErrAuctionNotFound       = errors.New("auction not exist")
	ErrNotAuctionOwner       = errors.New("not auction owner")
	ErrNotNFTOwner           = errors.New("not nft owner")
	ErrInvalidTimeStart      = errors.New("invalid time start")
	ErrInvalidStartTime      = errors.New("invalid start time")
	ErrEndTimeTooSoon        = errors.New("end time should be more than 5 mins")
	ErrEndBeforeStart        = errors.New("auction end time should be greater than start time by 5 mins")
	ErrEndTooCloseToStart    = ErrEndBeforeStart
	ErrAuctionAlreadyStarted = errors.New("auction already started")
	ErrStartTooCloseToEnd    = errors.New("auction start time should be less than end time by 5 min")
	ErrInvalidEndTime        = errors.New("invalid end time")
	ErrAuctionEnded          = errors.New("auction is ended")
	ErrOutOfTime             = errors.New("out of time")
	ErrBidBelowMinimum       = errors.New("bid is less than minimum bid")
	ErrBidTooLow             = errors.New("failed to outBid highest bidder")
	ErrCannotUpdateMinBid    = errors.New("cannot update the minimum bid if bidder exist")
	ErrNotHighestBidder      = errors.New("you are not the highest bidder")
	ErrTooEarlyToWithdraw    = errors.New("can withdraw only after 12 hours auction has ended")
	ErrAuctionNotEnded       = errors.New("auction not ended")
	ErrNoBidder              = errors.New("there is no bidder")
	ErrEmptyRecipient        = errors.New("recipient cannot be empty")
	ErrInvalidFee            = errors.New("auction: platform fee must be non-negative")
	ErrInvalidMinBid         = errors.New("auction: minimum bid must be non-negative")
)

type engineState interface {
	AuctionConfig() (*Config, error)
	AuctionConfigPut(cfg *Config) error
	AuctionGet(asset [20]byte, id uint64) (*Auction, bool, error)
	AuctionPut(a *Auction) error
	AuctionDelete(asset [20]byte, id uint64) error
	AuctionBidGet(asset [20]byte, id uint64) (*HighestBid, bool, error)
	AuctionBidPut(b *HighestBid) error
	AuctionBidDelete(asset [20]byte, id uint64) error
}

// AssetRegistry is the slice of the NFT module the auction house depends on.
type AssetRegistry interface {
	OwnerOf(asset [20]byte, id uint64) ([20]byte, error)
	RoyaltyInfo(asset [20]byte, id uint64, salePrice *big.Int) ([20]byte, *big.Int, error)
}

// Market is the slice of the marketplace the auction house depends on. Only
// listed tokens can be auctioned, and the winning token is handed over with
// the marketplace's approval.
type Market interface {
	IsListed(asset [20]byte, id uint64) (bool, error)
	HandOver(asset [20]byte, id uint64, seller, winner [20]byte) error
}

// Engine implements the auction house.
type Engine struct {
	state   engineState
	assets  AssetRegistry
	market  Market
	ledger  settlement.NativeLedger
	emitter events.Emitter
	address [20]byte
	nowFn   func() int64
}

// NewEngine constructs an auction house bound to its escrow address.
func NewEngine(address [20]byte) *Engine {
	return &Engine{
		address: address,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAssets configures the NFT registry.
func (e *Engine) SetAssets(assets AssetRegistry) { e.assets = assets }

// SetMarket configures the marketplace consulted on creation and settlement.
func (e *Engine) SetMarket(market Market) { e.market = market }

// SetLedger configures the native ledger used for refunds and payouts.
func (e *Engine) SetLedger(ledger settlement.NativeLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Address returns the escrow address holding bids.
func (e *Engine) Address() [20]byte { return e.address }

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.assets == nil || e.market == nil || e.ledger == nil {
		return errNilDeps
	}
	return nil
}

func (e *Engine) config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.state.AuctionConfig()
	if err != nil {
		return nil, err
	}
	if cfg.PlatformFee == nil {
		cfg.PlatformFee = big.NewInt(0)
	}
	return cfg, nil
}

// Config returns the current configuration.
func (e *Engine) Config() (*Config, error) { return e.config() }

func (e *Engine) loadAuction(asset [20]byte, id uint64) (*Auction, error) {
	a, ok, err := e.state.AuctionGet(asset, id)
	if err != nil {
		return nil, err
	}
	if !ok || !a.Exists() {
		return nil, ErrAuctionNotFound
	}
	return a, nil
}

func (e *Engine) loadOwnedAuction(caller, asset [20]byte, id uint64) (*Auction, error) {
	a, err := e.loadAuction(asset, id)
	if err != nil {
		return nil, err
	}
	if a.Owner != caller {
		return nil, ErrNotAuctionOwner
	}
	return a, nil
}

func (e *Engine) loadBid(asset [20]byte, id uint64) (*HighestBid, bool, error) {
	b, ok, err := e.state.AuctionBidGet(asset, id)
	if err != nil {
		return nil, false, err
	}
	if !ok || !b.Exists() {
		return nil, false, nil
	}
	return b, true, nil
}

// Auction returns the auction for a token, or a zero auction when none exists.
func (e *Engine) Auction(asset [20]byte, id uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	a, ok, err := e.state.AuctionGet(asset, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Auction{Asset: asset, TokenID: id, MinimumBid: big.NewInt(0)}, nil
	}
	return a, nil
}

// HighestBid returns the escrowed bid for a token, or a zero bid.
func (e *Engine) HighestBid(asset [20]byte, id uint64) (*HighestBid, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	b, ok, err := e.loadBid(asset, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &HighestBid{Asset: asset, TokenID: id, Amount: big.NewInt(0)}, nil
	}
	return b, nil
}

// CreateAuction opens an auction for a listed token owned by the caller.
func (e *Engine) CreateAuction(caller, asset [20]byte, id uint64, minimumBid *big.Int, startTime, endTime int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if cfg.Paused {
		return ErrPaused
	}
	owner, err := e.assets.OwnerOf(asset, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotTokenOwner, err)
	}
	if owner != caller {
		return ErrNotTokenOwner
	}
	listed, err := e.market.IsListed(asset, id)
	if err != nil {
		return err
	}
	if !listed {
		return ErrItemNotListed
	}
	if _, ok, err := e.state.AuctionGet(asset, id); err != nil {
		return err
	} else if ok {
		return ErrAuctionExists
	}
	if minimumBid == nil {
		minimumBid = big.NewInt(0)
	}
	if minimumBid.Sign() < 0 {
		return ErrInvalidMinBid
	}
	now := e.now()
	if startTime <= now {
		return ErrInvalidTimeStart
	}
	if endTime < now+minDurationSeconds {
		return ErrEndTimeTooSoon
	}
	if endTime < startTime+minDurationSeconds {
		return ErrEndBeforeStart
	}
	a := &Auction{
		Asset:      asset,
		TokenID:    id,
		Owner:      caller,
		MinimumBid: new(big.Int).Set(minimumBid),
		StartTime:  startTime,
		EndTime:    endTime,
	}
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	e.emit(CreatedEvent(a))
	return nil
}

// PlaceBid records value, already escrowed at the module address, as the new
// highest bid and refunds the displaced bidder. A failed refund fails the bid.
func (e *Engine) PlaceBid(caller [20]byte, value *big.Int, asset [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	a, err := e.loadAuction(asset, id)
	if err != nil {
		return err
	}
	now := e.now()
	if now < a.StartTime || now > a.EndTime {
		return ErrOutOfTime
	}
	amount := big.NewInt(0)
	if value != nil {
		amount = new(big.Int).Set(value)
	}
	if amount.Sign() <= 0 || amount.Cmp(a.MinimumBid) < 0 {
		return ErrBidBelowMinimum
	}
	previous, hasPrevious, err := e.loadBid(asset, id)
	if err != nil {
		return err
	}
	if hasPrevious && amount.Cmp(previous.Amount) <= 0 {
		return ErrBidTooLow
	}
	if hasPrevious {
		if err := e.ledger.Transfer(e.address, previous.Bidder, previous.Amount); err != nil {
			return fmt.Errorf("auction: refund previous bidder: %w", err)
		}
	}
	bid := &HighestBid{Asset: asset, TokenID: id, Bidder: caller, Amount: amount, PlacedAt: now}
	if err := e.state.AuctionBidPut(bid); err != nil {
		return err
	}
	if hasPrevious {
		e.emit(BidRefundedEvent(previous))
	}
	e.emit(BidPlacedEvent(bid))
	return nil
}

// WithdrawBid returns the escrowed bid to the highest bidder once the grace
// period after the end has elapsed without the auction being resulted.
func (e *Engine) WithdrawBid(caller, asset [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	bid, ok, err := e.loadBid(asset, id)
	if err != nil {
		return err
	}
	if !ok || bid.Bidder != caller {
		return ErrNotHighestBidder
	}
	a, err := e.loadAuction(asset, id)
	if err != nil {
		return err
	}
	if e.now() < a.EndTime+graceSeconds {
		return ErrTooEarlyToWithdraw
	}
	if err := e.state.AuctionBidDelete(asset, id); err != nil {
		return err
	}
	if err := e.ledger.Transfer(e.address, bid.Bidder, bid.Amount); err != nil {
		return err
	}
	e.emit(BidWithdrawnEvent(bid))
	return nil
}

// CancelAuction removes an auction and refunds any escrowed bid.
func (e *Engine) CancelAuction(caller, asset [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	a, err := e.loadAuction(asset, id)
	if err != nil {
		return err
	}
	if a.Owner != caller {
		return ErrNotNFTOwner
	}
	bid, hasBid, err := e.loadBid(asset, id)
	if err != nil {
		return err
	}
	if hasBid {
		if err := e.ledger.Transfer(e.address, bid.Bidder, bid.Amount); err != nil {
			return fmt.Errorf("auction: refund highest bidder: %w", err)
		}
	}
	if err := e.state.AuctionBidDelete(asset, id); err != nil {
		return err
	}
	if err := e.state.AuctionDelete(asset, id); err != nil {
		return err
	}
	if hasBid {
		e.emit(BidRefundedEvent(bid))
	}
	e.emit(CancelledEvent(asset, id))
	return nil
}

// UpdateMinBid changes the reserve while no bid has been placed.
func (e *Engine) UpdateMinBid(caller, asset [20]byte, id uint64, minimumBid *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	a, err := e.loadOwnedAuction(caller, asset, id)
	if err != nil {
		return err
	}
	if _, hasBid, err := e.loadBid(asset, id); err != nil {
		return err
	} else if hasBid {
		return ErrCannotUpdateMinBid
	}
	if minimumBid == nil || minimumBid.Sign() < 0 {
		return ErrInvalidMinBid
	}
	a.MinimumBid = new(big.Int).Set(minimumBid)
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	e.emit(UpdatedMinBidEvent(asset, id, a.MinimumBid))
	return nil
}

// UpdateStartTime moves the start of an auction that has not started.
func (e *Engine) UpdateStartTime(caller, asset [20]byte, id uint64, startTime int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	a, err := e.loadOwnedAuction(caller, asset, id)
	if err != nil {
		return err
	}
	if startTime <= 0 {
		return ErrInvalidStartTime
	}
	now := e.now()
	if now >= a.StartTime {
		return ErrAuctionAlreadyStarted
	}
	if startTime+minDurationSeconds > a.EndTime {
		return ErrStartTooCloseToEnd
	}
	if startTime <= now {
		return ErrInvalidStartTime
	}
	a.StartTime = startTime
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	e.emit(UpdatedStartTimeEvent(asset, id, startTime))
	return nil
}

// UpdateEndTime moves the end of an auction that has not ended.
func (e *Engine) UpdateEndTime(caller, asset [20]byte, id uint64, endTime int64) error {
	if err := e.ready(); err != nil {
		return err
	}
	a, err := e.loadOwnedAuction(caller, asset, id)
	if err != nil {
		return err
	}
	if endTime <= 0 {
		return ErrInvalidEndTime
	}
	now := e.now()
	if now >= a.EndTime {
		return ErrAuctionEnded
	}
	if endTime < a.StartTime+minDurationSeconds {
		return ErrEndTooCloseToStart
	}
	if endTime < now+minDurationSeconds {
		return ErrEndTimeTooSoon
	}
	a.EndTime = endTime
	if err := e.state.AuctionPut(a); err != nil {
		return err
	}
	e.emit(UpdatedEndTimeEvent(asset, id, endTime))
	return nil
}

// ResultAuction settles an ended auction: the winning bid is split between
// the fee recipient, the royalty recipient and the auction owner, and the
// marketplace hands the token to the winner and drops its listing.
func (e *Engine) ResultAuction(caller, asset [20]byte, id uint64) (*settlement.Breakdown, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	a, err := e.loadOwnedAuction(caller, asset, id)
	if err != nil {
		return nil, err
	}
	if e.now() <= a.EndTime {
		return nil, ErrAuctionNotEnded
	}
	bid, hasBid, err := e.loadBid(asset, id)
	if err != nil {
		return nil, err
	}
	if !hasBid {
		return nil, ErrNoBidder
	}
	if err := e.state.AuctionBidDelete(asset, id); err != nil {
		return nil, err
	}
	if err := e.state.AuctionDelete(asset, id); err != nil {
		return nil, err
	}
	royaltyRecipient, royalty, err := e.assets.RoyaltyInfo(asset, id, bid.Amount)
	if err != nil {
		return nil, err
	}
	breakdown, err := settlement.Split(bid.Amount, cfg.PlatformFee, settlement.Parties{
		Seller:           a.Owner,
		FeeRecipient:     cfg.FeeRecipient,
		RoyaltyRecipient: royaltyRecipient,
	}, royalty)
	if err != nil {
		return nil, err
	}
	if err := e.market.HandOver(asset, id, a.Owner, bid.Bidder); err != nil {
		return nil, err
	}
	if err := settlement.Push(e.ledger, e.address, breakdown); err != nil {
		return nil, err
	}
	e.emit(ResultedEvent(a, bid.Bidder, breakdown))
	return breakdown, nil
}

func (e *Engine) ownerConfig(caller [20]byte) (*Config, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Owner {
		return nil, ErrNotOwner
	}
	return cfg, nil
}

// TogglePaused flips the flag that blocks new auctions. Owner only.
func (e *Engine) TogglePaused(caller [20]byte) (bool, error) {
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return false, err
	}
	cfg.Paused = !cfg.Paused
	if err := e.state.AuctionConfigPut(cfg); err != nil {
		return false, err
	}
	e.emit(PausedToggledEvent(cfg.Paused))
	return cfg.Paused, nil
}

// UpdatePlatformFee sets the fee rate over the 1000 denominator. Owner only.
func (e *Engine) UpdatePlatformFee(caller [20]byte, fee *big.Int) error {
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return err
	}
	if fee == nil || fee.Sign() < 0 {
		return ErrInvalidFee
	}
	cfg.PlatformFee = new(big.Int).Set(fee)
	if err := e.state.AuctionConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedPlatformFeeEvent(fee))
	return nil
}

// UpdateFeeRecipient sets the account receiving platform fees. Owner only.
func (e *Engine) UpdateFeeRecipient(caller, recipient [20]byte) error {
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return err
	}
	if recipient == ([20]byte{}) {
		return ErrEmptyRecipient
	}
	cfg.FeeRecipient = recipient
	if err := e.state.AuctionConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedFeeRecipientEvent(recipient))
	return nil
}

// UpdateAddressRegistry records the address registry used by the auction
// house. Owner only.
func (e *Engine) UpdateAddressRegistry(caller, addr [20]byte) error {
	cfg, err := e.ownerConfig(caller)
	if err != nil {
		return err
	}
	cfg.AddressRegistry = addr
	if err := e.state.AuctionConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedAddressRegistryEvent(addr))
	return nil
}

// Package marketplace implements fixed-price listings paid in the native
// currency and token-denominated offers paid through allowances.
package marketplace

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/registry"
	"nftmarket/native/settlement"
)

var (
	errNilState  = errors.New("marketplace engine: state not configured")
	errNilAssets = errors.New("marketplace engine: asset registry not configured")
	errNilLedger = errors.New("marketplace engine: native ledger not configured")

	ErrNotOwner          = errors.New("not owner")
	ErrNotTokenOwner     = errors.New("not the token owner")
	ErrNotApproved       = errors.New("not approved for marketplace")
	ErrZeroPrice         = errors.New("price cannot be zero")
	ErrNonPositivePrice  = errors.New("price cannot be less than zero")
	ErrAlreadyListed     = errors.New("item is already listed")
	ErrItemNotListed     = errors.New("item is not listed")
	ErrInsufficientFunds = errors.New("insufficient funds for buying nft")
	ErrZeroOffer         = errors.New("your offer cannot be 0")
	ErrInvalidExpiration = errors.New("invalid expiration")
	ErrOfferExists       = errors.New("offer already created")
	ErrNoSuchOffer       = errors.New("offer doesn't exist or expired")
	ErrEmptyRecipient    = errors.New("recipient cannot be empty")
	ErrInvalidFee        = errors.New("marketplace: platform fee must be non-negative")
	ErrRegistryUnset     = errors.New("marketplace: address registry not set")
	ErrPaymentTokenUnset = errors.New("marketplace: payment token not registered")
)

type engineState interface {
	MarketConfig() (*Config, error)
	MarketConfigPut(cfg *Config) error
	MarketListingGet(asset [20]byte, id uint64) (*Listing, bool, error)
	MarketListingPut(l *Listing) error
	MarketListingDelete(asset [20]byte, id uint64) error
	MarketOfferGet(asset [20]byte, id uint64, offerer [20]byte) (*Offer, bool, error)
	MarketOfferPut(o *Offer) error
	MarketOfferDelete(asset [20]byte, id uint64, offerer [20]byte) error
}

// AssetRegistry is the slice of the NFT module the marketplace depends on.
type AssetRegistry interface {
	OwnerOf(asset [20]byte, id uint64) ([20]byte, error)
	IsApproved(asset, operator [20]byte, id uint64) (bool, error)
	TransferFrom(operator, asset, from, to [20]byte, id uint64) error
	RoyaltyInfo(asset [20]byte, id uint64, salePrice *big.Int) ([20]byte, *big.Int, error)
}

// RegistryView resolves roles through the address registry stored in the
// marketplace configuration.
type RegistryView interface {
	Lookup(registry [20]byte, role string) ([20]byte, error)
}

// TokenDirectory resolves a payment token address to its ledger.
type TokenDirectory interface {
	Token(addr [20]byte) (settlement.TokenLedger, error)
}

// Engine implements listings and offers.
type Engine struct {
	state    engineState
	assets   AssetRegistry
	ledger   settlement.NativeLedger
	registry RegistryView
	tokens   TokenDirectory
	emitter  events.Emitter
	address  [20]byte
	nowFn    func() int64
}

// NewEngine constructs a marketplace bound to its module address, which is
// the operator approved by sellers and the escrow of buy payments.
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

// SetLedger configures the native currency ledger used by BuyItem.
func (e *Engine) SetLedger(ledger settlement.NativeLedger) { e.ledger = ledger }

// SetRegistry configures role resolution and payment token lookup for offers.
func (e *Engine) SetRegistry(registry RegistryView, tokens TokenDirectory) {
	e.registry = registry
	e.tokens = tokens
}

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

// Address returns the marketplace module address.
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
	if e.assets == nil {
		return errNilAssets
	}
	return nil
}

func (e *Engine) config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.state.MarketConfig()
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

func (e *Engine) requireTokenOwner(caller, asset [20]byte, id uint64) error {
	owner, err := e.assets.OwnerOf(asset, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotTokenOwner, err)
	}
	if owner != caller {
		return ErrNotTokenOwner
	}
	return nil
}

func (e *Engine) loadListing(asset [20]byte, id uint64) (*Listing, error) {
	listing, ok, err := e.state.MarketListingGet(asset, id)
	if err != nil {
		return nil, err
	}
	if !ok || !listing.Active() {
		return nil, ErrItemNotListed
	}
	return listing, nil
}

// Listing returns the listing for a token, or a zero-price listing when the
// token is not listed.
func (e *Engine) Listing(asset [20]byte, id uint64) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	listing, ok, err := e.state.MarketListingGet(asset, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Listing{Asset: asset, TokenID: id, Price: big.NewInt(0)}, nil
	}
	return listing, nil
}

// IsListed reports whether a token currently has an active listing.
func (e *Engine) IsListed(asset [20]byte, id uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	listing, ok, err := e.state.MarketListingGet(asset, id)
	if err != nil {
		return false, err
	}
	return ok && listing.Active(), nil
}

// ListItem offers a token for sale at price. The caller must own the token
// and have approved the marketplace.
func (e *Engine) ListItem(caller, asset [20]byte, id uint64, price *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.requireTokenOwner(caller, asset, id); err != nil {
		return err
	}
	approved, err := e.assets.IsApproved(asset, e.address, id)
	if err != nil {
		return err
	}
	if !approved {
		return ErrNotApproved
	}
	if price == nil || price.Sign() <= 0 {
		return ErrZeroPrice
	}
	listed, err := e.IsListed(asset, id)
	if err != nil {
		return err
	}
	if listed {
		return ErrAlreadyListed
	}
	listing := &Listing{Asset: asset, TokenID: id, Seller: caller, Price: new(big.Int).Set(price)}
	if err := e.state.MarketListingPut(listing); err != nil {
		return err
	}
	e.emit(ItemListedEvent(listing))
	return nil
}

// UpdateListing changes the price of an active listing.
func (e *Engine) UpdateListing(caller, asset [20]byte, id uint64, price *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	listing, err := e.loadListing(asset, id)
	if err != nil {
		return err
	}
	if err := e.requireTokenOwner(caller, asset, id); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return ErrNonPositivePrice
	}
	listing.Price = new(big.Int).Set(price)
	if err := e.state.MarketListingPut(listing); err != nil {
		return err
	}
	e.emit(ListingUpdatedEvent(listing))
	return nil
}

// CancelListing removes an active listing.
func (e *Engine) CancelListing(caller, asset [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.loadListing(asset, id); err != nil {
		return err
	}
	if err := e.requireTokenOwner(caller, asset, id); err != nil {
		return err
	}
	if err := e.state.MarketListingDelete(asset, id); err != nil {
		return err
	}
	e.emit(ListingCancelledEvent(caller, asset, id))
	return nil
}

// BuyItem settles a listing with the native value escrowed by the call. The
// platform fee, royalty and seller proceeds are pushed from the marketplace
// account, the token moves to the buyer and any overpayment is refunded.
func (e *Engine) BuyItem(caller [20]byte, value *big.Int, asset [20]byte, id uint64) (*settlement.Breakdown, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	listing, err := e.loadListing(asset, id)
	if err != nil {
		return nil, err
	}
	paid := big.NewInt(0)
	if value != nil {
		paid = new(big.Int).Set(value)
	}
	if paid.Cmp(listing.Price) < 0 {
		return nil, ErrInsufficientFunds
	}
	if err := e.state.MarketListingDelete(asset, id); err != nil {
		return nil, err
	}
	royaltyRecipient, royalty, err := e.assets.RoyaltyInfo(asset, id, listing.Price)
	if err != nil {
		return nil, err
	}
	breakdown, err := settlement.Split(listing.Price, cfg.PlatformFee, settlement.Parties{
		Seller:           listing.Seller,
		FeeRecipient:     cfg.FeeRecipient,
		RoyaltyRecipient: royaltyRecipient,
	}, royalty)
	if err != nil {
		return nil, err
	}
	if err := e.assets.TransferFrom(e.address, asset, listing.Seller, caller, id); err != nil {
		return nil, err
	}
	if err := settlement.Push(e.ledger, e.address, breakdown); err != nil {
		return nil, err
	}
	if excess := new(big.Int).Sub(paid, listing.Price); excess.Sign() > 0 {
		if err := e.ledger.Transfer(e.address, caller, excess); err != nil {
			return nil, err
		}
	}
	e.emit(ItemBoughtEvent(caller, listing, breakdown))
	return breakdown, nil
}

// Offer returns the stored offer, expired or not, or a zero offer.
func (e *Engine) Offer(asset [20]byte, id uint64, offerer [20]byte) (*Offer, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	offer, ok, err := e.state.MarketOfferGet(asset, id, offerer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Offer{Asset: asset, TokenID: id, Offerer: offerer, Amount: big.NewInt(0)}, nil
	}
	return offer, nil
}

// CreateOffer records a token-denominated bid. A stored offer blocks a new
// one even after it expires; the offerer must cancel it first.
func (e *Engine) CreateOffer(caller, asset [20]byte, id uint64, amount *big.Int, expiration int64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroOffer
	}
	if expiration <= e.now() {
		return ErrInvalidExpiration
	}
	existing, ok, err := e.state.MarketOfferGet(asset, id, caller)
	if err != nil {
		return err
	}
	if ok && existing.Exists() {
		return ErrOfferExists
	}
	offer := &Offer{Asset: asset, TokenID: id, Offerer: caller, Amount: new(big.Int).Set(amount), Expiration: expiration}
	if err := e.state.MarketOfferPut(offer); err != nil {
		return err
	}
	e.emit(OfferCreatedEvent(offer))
	return nil
}

func (e *Engine) liveOffer(asset [20]byte, id uint64, offerer [20]byte) (*Offer, error) {
	offer, ok, err := e.state.MarketOfferGet(asset, id, offerer)
	if err != nil {
		return nil, err
	}
	if !ok || !offer.Live(e.now()) {
		return nil, ErrNoSuchOffer
	}
	return offer, nil
}

// CancelOffer removes the caller's live offer.
func (e *Engine) CancelOffer(caller, asset [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	offer, err := e.liveOffer(asset, id, caller)
	if err != nil {
		return err
	}
	if err := e.state.MarketOfferDelete(asset, id, caller); err != nil {
		return err
	}
	e.emit(OfferCancelledEvent(offer))
	return nil
}

func (e *Engine) paymentToken(cfg *Config) ([20]byte, settlement.TokenLedger, error) {
	if e.registry == nil || e.tokens == nil || cfg.AddressRegistry == ([20]byte{}) {
		return [20]byte{}, nil, ErrRegistryUnset
	}
	addr, err := e.registry.Lookup(cfg.AddressRegistry, registry.RoleWETH)
	if err != nil {
		return [20]byte{}, nil, err
	}
	if addr == ([20]byte{}) {
		return [20]byte{}, nil, ErrPaymentTokenUnset
	}
	ledger, err := e.tokens.Token(addr)
	if err != nil {
		return [20]byte{}, nil, err
	}
	return addr, ledger, nil
}

// AcceptOffer sells the caller's token to offerer. The payment token is
// resolved through the address registry and every leg of the settlement is
// pulled from the offerer with the marketplace's allowance. A listing for the
// token is removed.
func (e *Engine) AcceptOffer(caller, asset [20]byte, id uint64, offerer [20]byte) (*settlement.Breakdown, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if err := e.requireTokenOwner(caller, asset, id); err != nil {
		return nil, err
	}
	offer, err := e.liveOffer(asset, id, offerer)
	if err != nil {
		return nil, err
	}
	tokenAddr, token, err := e.paymentToken(cfg)
	if err != nil {
		return nil, err
	}
	royaltyRecipient, royalty, err := e.assets.RoyaltyInfo(asset, id, offer.Amount)
	if err != nil {
		return nil, err
	}
	breakdown, err := settlement.Split(offer.Amount, cfg.PlatformFee, settlement.Parties{
		Seller:           caller,
		FeeRecipient:     cfg.FeeRecipient,
		RoyaltyRecipient: royaltyRecipient,
	}, royalty)
	if err != nil {
		return nil, err
	}
	if err := settlement.Pull(token, e.address, offerer, breakdown); err != nil {
		return nil, err
	}
	if err := e.assets.TransferFrom(e.address, asset, caller, offerer, id); err != nil {
		return nil, err
	}
	listed, err := e.IsListed(asset, id)
	if err != nil {
		return nil, err
	}
	if listed {
		if err := e.state.MarketListingDelete(asset, id); err != nil {
			return nil, err
		}
	}
	if err := e.state.MarketOfferDelete(asset, id, offerer); err != nil {
		return nil, err
	}
	e.emit(OfferAcceptedEvent(caller, offer, tokenAddr, breakdown))
	return breakdown, nil
}

// HandOver moves a listed token from seller to winner with the marketplace's
// approval and drops the listing. The auction engine settles winning bids
// through it.
func (e *Engine) HandOver(asset [20]byte, id uint64, seller, winner [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.assets.TransferFrom(e.address, asset, seller, winner, id); err != nil {
		return err
	}
	if _, ok, err := e.state.MarketListingGet(asset, id); err != nil {
		return err
	} else if !ok {
		return nil
	}
	return e.state.MarketListingDelete(asset, id)
}

// UpdatePlatformFee sets the fee rate over the 1000 denominator. Owner only.
func (e *Engine) UpdatePlatformFee(caller [20]byte, fee *big.Int) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if caller != cfg.Owner {
		return ErrNotOwner
	}
	if fee == nil || fee.Sign() < 0 {
		return ErrInvalidFee
	}
	cfg.PlatformFee = new(big.Int).Set(fee)
	if err := e.state.MarketConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedPlatformFeeEvent(fee))
	return nil
}

// UpdateFeeRecipient sets the account receiving platform fees. Owner only.
func (e *Engine) UpdateFeeRecipient(caller, recipient [20]byte) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if caller != cfg.Owner {
		return ErrNotOwner
	}
	if recipient == ([20]byte{}) {
		return ErrEmptyRecipient
	}
	cfg.FeeRecipient = recipient
	if err := e.state.MarketConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedFeeRecipientEvent(recipient))
	return nil
}

// UpdateAddressRegistry points the marketplace at an address registry.
// Owner only.
func (e *Engine) UpdateAddressRegistry(caller, addr [20]byte) error {
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if caller != cfg.Owner {
		return ErrNotOwner
	}
	cfg.AddressRegistry = addr
	if err := e.state.MarketConfigPut(cfg); err != nil {
		return err
	}
	e.emit(UpdatedAddressRegistryEvent(addr))
	return nil
}

// Package nft hosts ERC-721 style collections with ERC-2981 royalty quotes.
// The factory deploys private collections into the engine; the engine's own
// module address carries the public collection anyone can mint from.
package nft

import (
	"errors"
	"math/big"
	"strings"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/native/settlement"
)

var (
	errNilState  = errors.New("nft engine: state not configured")
	errNilLedger = errors.New("nft engine: native ledger not configured")

	ErrCollectionNotFound = errors.New("nft: collection not found")
	ErrCollectionExists   = errors.New("nft: collection already deployed")
	ErrTokenNotFound      = errors.New("ERC721: invalid token ID")
	ErrNotOwner           = errors.New("not owner")
	ErrNoTokenURI         = errors.New("no token uri")
	ErrEmptyRecipient     = errors.New("recipient cannot be empty")
	ErrRoyaltyTooHigh     = errors.New("royalty fee cannot be more than 10%")
	ErrInsufficientFunds  = errors.New("not enough funds")
	ErrNotPublic          = errors.New("nft: collection does not accept public mints")
	ErrNotApproved        = errors.New("ERC721: caller is not token owner or approved")
	ErrWrongFrom          = errors.New("ERC721: transfer from incorrect owner")
	ErrZeroAddress        = errors.New("ERC721: transfer to the zero address")
	ErrApproveToOwner     = errors.New("ERC721: approval to current owner")
)

type engineState interface {
	NFTCollectionGet(addr [20]byte) (*Collection, bool, error)
	NFTCollectionPut(c *Collection) error
	NFTTokenGet(collection [20]byte, id uint64) (*Token, bool, error)
	NFTTokenPut(t *Token) error
	NFTOperatorGet(collection, owner, operator [20]byte) (bool, error)
	NFTOperatorPut(collection, owner, operator [20]byte, approved bool) error
	NFTBalanceGet(collection, owner [20]byte) (uint64, error)
	NFTBalancePut(collection, owner [20]byte, count uint64) error
}

// NativeLedger moves mint fees out of the module account.
type NativeLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine implements the collection registry.
type Engine struct {
	state   engineState
	ledger  NativeLedger
	emitter events.Emitter
	address [20]byte
}

// NewEngine constructs an engine bound to its module address, which is also
// the address of the public collection.
func NewEngine(address [20]byte) *Engine {
	return &Engine{address: address, emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the native ledger used to forward public mint fees.
func (e *Engine) SetLedger(ledger NativeLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Address returns the module address, which hosts the public collection.
func (e *Engine) Address() [20]byte { return e.address }

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
	return nil
}

func (e *Engine) loadCollection(addr [20]byte) (*Collection, error) {
	c, ok, err := e.state.NFTCollectionGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return c, nil
}

func (e *Engine) loadToken(collection [20]byte, id uint64) (*Token, error) {
	t, ok, err := e.state.NFTTokenGet(collection, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenNotFound
	}
	return t, nil
}

// DeployParams describes a new collection.
type DeployParams struct {
	Address          [20]byte
	Name             string
	Symbol           string
	Owner            [20]byte
	RoyaltyRecipient [20]byte
	RoyaltyBps       uint64
	Public           bool
	MintFee          *big.Int
}

// DeployCollection registers a collection at the supplied address.
func (e *Engine) DeployCollection(params DeployParams) (*Collection, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if params.RoyaltyBps > MaxRoyaltyBps {
		return nil, ErrRoyaltyTooHigh
	}
	if _, ok, err := e.state.NFTCollectionGet(params.Address); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrCollectionExists
	}
	fee := big.NewInt(0)
	if params.MintFee != nil {
		fee = new(big.Int).Set(params.MintFee)
	}
	c := &Collection{
		Address:          params.Address,
		Name:             strings.TrimSpace(params.Name),
		Symbol:           strings.TrimSpace(params.Symbol),
		Owner:            params.Owner,
		RoyaltyRecipient: params.RoyaltyRecipient,
		RoyaltyBps:       params.RoyaltyBps,
		NextTokenID:      1,
		Public:           params.Public,
		MintFee:          fee,
	}
	if err := e.state.NFTCollectionPut(c); err != nil {
		return nil, err
	}
	e.emit(CollectionDeployedEvent(c))
	return c.Clone(), nil
}

// Collection returns the stored collection.
func (e *Engine) Collection(addr [20]byte) (*Collection, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadCollection(addr)
}

func (e *Engine) mint(c *Collection, to [20]byte, uri string) (*Token, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrNoTokenURI
	}
	if c.NextTokenID == 0 {
		c.NextTokenID = 1
	}
	token := &Token{
		Collection: c.Address,
		ID:         c.NextTokenID,
		Owner:      to,
		URI:        uri,
		Creator:    to,
	}
	c.NextTokenID++
	if err := e.state.NFTCollectionPut(c); err != nil {
		return nil, err
	}
	if err := e.state.NFTTokenPut(token); err != nil {
		return nil, err
	}
	if err := e.adjustBalance(c.Address, to, 1); err != nil {
		return nil, err
	}
	return token, nil
}

// Mint issues the next token of a collection to its owner. Only the
// collection owner may mint.
func (e *Engine) Mint(caller, collection [20]byte, uri string) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	c, err := e.loadCollection(collection)
	if err != nil {
		return 0, err
	}
	if caller != c.Owner {
		return 0, ErrNotOwner
	}
	token, err := e.mint(c, caller, uri)
	if err != nil {
		return 0, err
	}
	e.emit(MintedEvent(token))
	return token.ID, nil
}

// PublicMint issues a token of the public collection to the caller, who picks
// the token royalty and receives it as creator. value was escrowed at the
// module address; the mint fee goes to the collection owner and any excess is
// returned.
func (e *Engine) PublicMint(caller [20]byte, value *big.Int, uri string, royaltyBps uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if e.ledger == nil {
		return 0, errNilLedger
	}
	c, err := e.loadCollection(e.address)
	if err != nil {
		return 0, err
	}
	if !c.Public {
		return 0, ErrNotPublic
	}
	paid := big.NewInt(0)
	if value != nil {
		paid = new(big.Int).Set(value)
	}
	fee := c.MintFee
	if fee == nil {
		fee = big.NewInt(0)
	}
	if paid.Cmp(fee) < 0 {
		return 0, ErrInsufficientFunds
	}
	if royaltyBps > MaxRoyaltyBps {
		return 0, ErrRoyaltyTooHigh
	}
	token, err := e.mint(c, caller, uri)
	if err != nil {
		return 0, err
	}
	if royaltyBps > 0 {
		token.HasRoyalty = true
		token.RoyaltyRecipient = caller
		token.RoyaltyBps = royaltyBps
		if err := e.state.NFTTokenPut(token); err != nil {
			return 0, err
		}
	}
	if fee.Sign() > 0 {
		if err := e.ledger.Transfer(e.address, c.Owner, fee); err != nil {
			return 0, err
		}
	}
	if excess := new(big.Int).Sub(paid, fee); excess.Sign() > 0 {
		if err := e.ledger.Transfer(e.address, caller, excess); err != nil {
			return 0, err
		}
	}
	e.emit(MintedEvent(token))
	return token.ID, nil
}

// UpdateMintFee changes the public collection mint fee.
func (e *Engine) UpdateMintFee(caller [20]byte, fee *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if fee == nil || fee.Sign() < 0 {
		return ErrInsufficientFunds
	}
	c, err := e.loadCollection(e.address)
	if err != nil {
		return err
	}
	if caller != c.Owner {
		return ErrNotOwner
	}
	c.MintFee = new(big.Int).Set(fee)
	if err := e.state.NFTCollectionPut(c); err != nil {
		return err
	}
	e.emit(UpdatedMintFeeEvent(c.Address, fee.String()))
	return nil
}

// Token returns the stored token.
func (e *Engine) Token(collection [20]byte, id uint64) (*Token, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.loadToken(collection, id)
}

// OwnerOf returns the holder of a token.
func (e *Engine) OwnerOf(collection [20]byte, id uint64) ([20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return [20]byte{}, err
	}
	return t.Owner, nil
}

// TokenURI returns the metadata URI of a token.
func (e *Engine) TokenURI(collection [20]byte, id uint64) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return "", err
	}
	return t.URI, nil
}

// BalanceOf returns how many tokens of collection owner holds.
func (e *Engine) BalanceOf(collection, owner [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.NFTBalanceGet(collection, owner)
}

// GetApproved returns the single-token approval.
func (e *Engine) GetApproved(collection [20]byte, id uint64) ([20]byte, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return [20]byte{}, err
	}
	return t.Approved, nil
}

// IsApprovedForAll reports whether operator manages every token of owner.
func (e *Engine) IsApprovedForAll(collection, owner, operator [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.NFTOperatorGet(collection, owner, operator)
}

// IsApproved reports whether operator may move token id: it owns the token,
// holds the token approval, or is an approved operator of the owner.
func (e *Engine) IsApproved(collection, operator [20]byte, id uint64) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return false, err
	}
	return e.authorized(t, operator)
}

func (e *Engine) authorized(t *Token, operator [20]byte) (bool, error) {
	if operator == t.Owner || (t.Approved != ([20]byte{}) && operator == t.Approved) {
		return true, nil
	}
	return e.state.NFTOperatorGet(t.Collection, t.Owner, operator)
}

// Approve grants to the right to move a single token. The caller must own
// the token or be an approved operator of the owner.
func (e *Engine) Approve(caller, collection, to [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return err
	}
	if to == t.Owner {
		return ErrApproveToOwner
	}
	if caller != t.Owner {
		ok, err := e.state.NFTOperatorGet(collection, t.Owner, caller)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotApproved
		}
	}
	t.Approved = to
	if err := e.state.NFTTokenPut(t); err != nil {
		return err
	}
	e.emit(ApprovalEvent(collection, t.Owner, to, id))
	return nil
}

// SetApprovalForAll toggles operator rights over every token the caller holds
// in collection.
func (e *Engine) SetApprovalForAll(caller, collection, operator [20]byte, approved bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.loadCollection(collection); err != nil {
		return err
	}
	if operator == caller {
		return ErrApproveToOwner
	}
	if err := e.state.NFTOperatorPut(collection, caller, operator, approved); err != nil {
		return err
	}
	e.emit(ApprovalForAllEvent(collection, caller, operator, approved))
	return nil
}

// TransferFrom moves token id from from to to on behalf of operator. The
// single-token approval is cleared.
func (e *Engine) TransferFrom(operator, collection, from, to [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	t, err := e.loadToken(collection, id)
	if err != nil {
		return err
	}
	if t.Owner != from {
		return ErrWrongFrom
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	ok, err := e.authorized(t, operator)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotApproved
	}
	t.Owner = to
	t.Approved = [20]byte{}
	if err := e.state.NFTTokenPut(t); err != nil {
		return err
	}
	if err := e.adjustBalance(collection, from, -1); err != nil {
		return err
	}
	if err := e.adjustBalance(collection, to, 1); err != nil {
		return err
	}
	e.emit(TransferEvent(collection, from, to, id))
	return nil
}

func (e *Engine) adjustBalance(collection, owner [20]byte, delta int) error {
	count, err := e.state.NFTBalanceGet(collection, owner)
	if err != nil {
		return err
	}
	switch {
	case delta > 0:
		count += uint64(delta)
	case uint64(-delta) > count:
		count = 0
	default:
		count -= uint64(-delta)
	}
	return e.state.NFTBalancePut(collection, owner, count)
}

// RoyaltyInfo quotes the royalty owed on a sale of token id at salePrice. A
// token level royalty takes precedence over the collection default; ids that
// were never minted quote the collection default.
func (e *Engine) RoyaltyInfo(collection [20]byte, id uint64, salePrice *big.Int) ([20]byte, *big.Int, error) {
	if err := e.ready(); err != nil {
		return [20]byte{}, nil, err
	}
	c, err := e.loadCollection(collection)
	if err != nil {
		return [20]byte{}, nil, err
	}
	recipient, bps := c.RoyaltyRecipient, c.RoyaltyBps
	t, ok, err := e.state.NFTTokenGet(collection, id)
	if err != nil {
		return [20]byte{}, nil, err
	}
	if ok && t.HasRoyalty {
		recipient, bps = t.RoyaltyRecipient, t.RoyaltyBps
	}
	return recipient, settlement.RoyaltyCut(salePrice, bps), nil
}

// UpdateRoyalty replaces the collection default royalty.
func (e *Engine) UpdateRoyalty(caller, collection, recipient [20]byte, bps uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	c, err := e.loadCollection(collection)
	if err != nil {
		return err
	}
	if caller != c.Owner {
		return ErrNotOwner
	}
	if recipient == ([20]byte{}) {
		return ErrEmptyRecipient
	}
	if bps > MaxRoyaltyBps {
		return ErrRoyaltyTooHigh
	}
	c.RoyaltyRecipient = recipient
	c.RoyaltyBps = bps
	if err := e.state.NFTCollectionPut(c); err != nil {
		return err
	}
	e.emit(UpdatedRoyaltyEvent(collection, recipient, bps))
	return nil
}

// RemoveRoyalty zeroes the collection default royalty.
func (e *Engine) RemoveRoyalty(caller, collection [20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	c, err := e.loadCollection(collection)
	if err != nil {
		return err
	}
	if caller != c.Owner {
		return ErrNotOwner
	}
	c.RoyaltyRecipient = [20]byte{}
	c.RoyaltyBps = 0
	if err := e.state.NFTCollectionPut(c); err != nil {
		return err
	}
	e.emit(RemovedRoyaltyEvent(collection))
	return nil
}

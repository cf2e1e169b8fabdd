// Package factory deploys fee-paying NFT collections on behalf of creators
// and tracks the collections each creator owns.
package factory

import (
	"errors"
	"math/big"
	"strconv"

	"nftmarket/core/events"
	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/nft"
)

const (
	EventTypeCollectionCreated   = "factory.collection_created"
	EventTypeUpdatedPlatformFee  = "factory.updated_platform_fee"
	EventTypeUpdatedFeeRecipient = "factory.updated_fee_recipient"
)

var (
	errNilState          = errors.New("factory engine: state not configured")
	errNilWiring         = errors.New("factory engine: deployer or ledger not configured")
	ErrNotOwner          = errors.New("not owner")
	ErrEmptyRecipient    = errors.New("recipient cannot be empty")
	ErrInsufficientFunds = errors.New("not enough funds")
	ErrRoyaltyTooHigh    = errors.New("max royalty fee is 10 percent")
	ErrInvalidFee        = errors.New("factory: platform fee must be non-negative")
)

// DefaultPlatformFee is the price of one collection: 0.1 ether.
var DefaultPlatformFee = new(big.Int).Div(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), big.NewInt(10))

// Config is the persisted factory configuration.
type Config struct {
	Owner        [20]byte
	PlatformFee  *big.Int
	FeeRecipient [20]byte
	// Nonce feeds collection address derivation.
	Nonce uint64
}

type engineState interface {
	FactoryConfig() (*Config, error)
	FactoryConfigPut(cfg *Config) error
	FactoryCollections(owner [20]byte) ([][20]byte, error)
	FactoryAppendCollection(owner, collection [20]byte) error
}

// Deployer registers new collections.
type Deployer interface {
	DeployCollection(params nft.DeployParams) (*nft.Collection, error)
}

// NativeLedger moves the escrowed creation fee.
type NativeLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine implements collection creation.
type Engine struct {
	state    engineState
	deployer Deployer
	ledger   NativeLedger
	emitter  events.Emitter
	address  [20]byte
}

func NewEngine(address [20]byte) *Engine {
	return &Engine{address: address, emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetDeployer(d Deployer) { e.deployer = d }

func (e *Engine) SetLedger(ledger NativeLedger) { e.ledger = ledger }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Address returns the module address receiving creation payments.
func (e *Engine) Address() [20]byte { return e.address }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.state.FactoryConfig()
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

// CollectionsOwned lists the collections created by owner in creation order.
func (e *Engine) CollectionsOwned(owner [20]byte) ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.FactoryCollections(owner)
}

// CreateCollection deploys a collection owned by caller. value was escrowed
// at the module address; the platform fee goes to the fee recipient and any
// excess is refunded.
func (e *Engine) CreateCollection(caller [20]byte, value *big.Int, name, symbol string, royaltyBps uint64, royaltyRecipient [20]byte) ([20]byte, error) {
	cfg, err := e.config()
	if err != nil {
		return [20]byte{}, err
	}
	if e.deployer == nil || e.ledger == nil {
		return [20]byte{}, errNilWiring
	}
	paid := big.NewInt(0)
	if value != nil {
		paid = new(big.Int).Set(value)
	}
	if paid.Cmp(cfg.PlatformFee) < 0 {
		return [20]byte{}, ErrInsufficientFunds
	}
	if royaltyBps > nft.MaxRoyaltyBps {
		return [20]byte{}, ErrRoyaltyTooHigh
	}
	cfg.Nonce++
	addr := crypto.CreateAddress(e.address, cfg.Nonce)
	collection, err := e.deployer.DeployCollection(nft.DeployParams{
		Address:          addr,
		Name:             name,
		Symbol:           symbol,
		Owner:            caller,
		RoyaltyRecipient: royaltyRecipient,
		RoyaltyBps:       royaltyBps,
	})
	if err != nil {
		return [20]byte{}, err
	}
	if err := e.state.FactoryConfigPut(cfg); err != nil {
		return [20]byte{}, err
	}
	if err := e.state.FactoryAppendCollection(caller, collection.Address); err != nil {
		return [20]byte{}, err
	}
	if cfg.PlatformFee.Sign() > 0 {
		if err := e.ledger.Transfer(e.address, cfg.FeeRecipient, cfg.PlatformFee); err != nil {
			return [20]byte{}, err
		}
	}
	if excess := new(big.Int).Sub(paid, cfg.PlatformFee); excess.Sign() > 0 {
		if err := e.ledger.Transfer(e.address, caller, excess); err != nil {
			return [20]byte{}, err
		}
	}
	e.emit(&types.Event{
		Type: EventTypeCollectionCreated,
		Attributes: map[string]string{
			"creator":          crypto.HexAddress(caller),
			"collection":       crypto.HexAddress(collection.Address),
			"name":             collection.Name,
			"symbol":           collection.Symbol,
			"royaltyBps":       strconv.FormatUint(royaltyBps, 10),
			"royaltyRecipient": crypto.HexAddress(royaltyRecipient),
		},
	})
	return collection.Address, nil
}

// UpdatePlatformFee sets the creation price. Owner only.
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
	if err := e.state.FactoryConfigPut(cfg); err != nil {
		return err
	}
	e.emit(&types.Event{
		Type:       EventTypeUpdatedPlatformFee,
		Attributes: map[string]string{"platformFee": fee.String()},
	})
	return nil
}

// UpdateFeeRecipient sets the account receiving creation fees. Owner only.
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
	if err := e.state.FactoryConfigPut(cfg); err != nil {
		return err
	}
	e.emit(&types.Event{
		Type:       EventTypeUpdatedFeeRecipient,
		Attributes: map[string]string{"feeRecipient": crypto.HexAddress(recipient)},
	})
	return nil
}

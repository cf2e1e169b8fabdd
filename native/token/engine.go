package token

import (
	"errors"
	"math/big"

	"nftmarket/core/events"
	"nftmarket/core/types"
)

var (
	errNilState              = errors.New("token engine: state not configured")
	errNilLedger             = errors.New("token engine: native ledger not configured")
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

type engineState interface {
	TokenBalance(holder [20]byte) (*big.Int, error)
	SetTokenBalance(holder [20]byte, amount *big.Int) error
	TokenAllowance(owner, spender [20]byte) (*big.Int, error)
	SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(amount *big.Int) error
}

// NativeLedger moves native currency out of the token module when holders
// unwrap.
type NativeLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Engine implements a WETH-style wrapped native currency. Native value sent
// with a deposit is held at the engine's own address.
type Engine struct {
	state   engineState
	ledger  NativeLedger
	emitter events.Emitter
	address [20]byte
}

// NewEngine constructs a token engine bound to its module address.
func NewEngine(address [20]byte) *Engine {
	return &Engine{address: address, emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the native currency ledger used for withdrawals.
func (e *Engine) SetLedger(ledger NativeLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Address returns the module address holding wrapped collateral.
func (e *Engine) Address() [20]byte { return e.address }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func positive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

// Metadata returns the token description including the current supply.
func (e *Engine) Metadata() (*Metadata, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	supply, err := e.state.TokenSupply()
	if err != nil {
		return nil, err
	}
	return &Metadata{Address: e.address, Name: Name, Symbol: Symbol, Decimals: Decimals, TotalSupply: supply}, nil
}

// BalanceOf returns the wrapped balance of holder.
func (e *Engine) BalanceOf(holder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenBalance(holder)
}

// Allowance returns how much spender may move on behalf of owner.
func (e *Engine) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.TokenAllowance(owner, spender)
}

// Deposit credits caller with value wrapped tokens. The node has already moved
// the native value into the module account.
func (e *Engine) Deposit(caller [20]byte, value *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !positive(value) {
		return ErrInvalidAmount
	}
	if err := e.adjustSupply(value); err != nil {
		return err
	}
	if err := e.credit(caller, value); err != nil {
		return err
	}
	e.emit(DepositEvent(caller, value))
	return nil
}

// Withdraw burns amount wrapped tokens and returns the native currency.
func (e *Engine) Withdraw(caller [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if !positive(amount) {
		return ErrInvalidAmount
	}
	if err := e.debit(caller, amount); err != nil {
		return err
	}
	if err := e.adjustSupply(new(big.Int).Neg(amount)); err != nil {
		return err
	}
	if err := e.ledger.Transfer(e.address, caller, amount); err != nil {
		return err
	}
	e.emit(WithdrawalEvent(caller, amount))
	return nil
}

// Approve sets the allowance spender may draw from owner.
func (e *Engine) Approve(owner, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := e.state.SetTokenAllowance(owner, spender, amount); err != nil {
		return err
	}
	e.emit(ApprovalEvent(owner, spender, amount))
	return nil
}

// Transfer moves amount from the caller to the recipient.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	return e.TransferFrom(from, from, to, amount)
}

// TransferFrom moves amount from the owner to the recipient on behalf of the
// spender. Spending one's own balance or holding an unlimited allowance does
// not consume allowance.
func (e *Engine) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !positive(amount) {
		return ErrInvalidAmount
	}
	if spender != from {
		allowance, err := e.state.TokenAllowance(from, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(MaxAllowance) != 0 {
			if allowance.Cmp(amount) < 0 {
				return ErrInsufficientAllowance
			}
			if err := e.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amount)); err != nil {
				return err
			}
		}
	}
	if err := e.debit(from, amount); err != nil {
		return err
	}
	if err := e.credit(to, amount); err != nil {
		return err
	}
	e.emit(TransferEvent(from, to, amount))
	return nil
}

func (e *Engine) credit(holder [20]byte, amount *big.Int) error {
	balance, err := e.state.TokenBalance(holder)
	if err != nil {
		return err
	}
	return e.state.SetTokenBalance(holder, new(big.Int).Add(balance, amount))
}

func (e *Engine) debit(holder [20]byte, amount *big.Int) error {
	balance, err := e.state.TokenBalance(holder)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return e.state.SetTokenBalance(holder, new(big.Int).Sub(balance, amount))
}

func (e *Engine) adjustSupply(delta *big.Int) error {
	supply, err := e.state.TokenSupply()
	if err != nil {
		return err
	}
	next := new(big.Int).Add(supply, delta)
	if next.Sign() < 0 {
		return ErrInsufficientBalance
	}
	return e.state.SetTokenSupply(next)
}

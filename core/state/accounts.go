package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"nftmarket/core/types"
)

// ErrInsufficientBalance is returned when a native transfer exceeds the
// sender's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

const accountPrefix = "account/"

type accountRecord struct {
	Nonce   uint64
	Balance *uint256.Int
}

func accountKey(addr [20]byte) []byte {
	return joinKey(accountPrefix, addr[:])
}

// GetAccount returns the account stored under addr, or an empty account.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var rec accountRecord
	ok, err := m.KVGet(accountKey(addr), &rec)
	if err != nil {
		return nil, err
	}
	account := &types.Account{Balance: big.NewInt(0)}
	if ok {
		account.Nonce = rec.Nonce
		if rec.Balance != nil {
			account.Balance = rec.Balance.ToBig()
		}
	}
	return account, nil
}

// PutAccount persists account under addr. Balances must fit in 256 bits.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("nil account")
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	if balance.Sign() < 0 {
		return fmt.Errorf("negative balance")
	}
	value, overflow := uint256.FromBig(balance)
	if overflow {
		return fmt.Errorf("balance overflow")
	}
	return m.KVPut(accountKey(addr), &accountRecord{Nonce: account.Nonce, Balance: value})
}

// Balance returns the native balance of addr.
func (m *Manager) Balance(addr [20]byte) (*big.Int, error) {
	account, err := m.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// Credit adds amount to the native balance of addr.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative credit")
	}
	account, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.PutAccount(addr, account)
}

// Transfer moves native currency between accounts.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative transfer amount")
	}
	sender, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, sender.Balance, amount)
	}
	if from == to {
		return nil
	}
	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	if err := m.PutAccount(from, sender); err != nil {
		return err
	}
	return m.Credit(to, amount)
}

// IncrementNonce bumps the call counter of addr.
func (m *Manager) IncrementNonce(addr [20]byte) (uint64, error) {
	account, err := m.GetAccount(addr)
	if err != nil {
		return 0, err
	}
	account.Nonce++
	if err := m.PutAccount(addr, account); err != nil {
		return 0, err
	}
	return account.Nonce, nil
}

package state

import "math/big"

const (
	tokenBalancePrefix   = "token/balance/"
	tokenAllowancePrefix = "token/allowance/"
	tokenSupplyKey       = "token/supply"
)

func (m *Manager) loadBig(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) storeBig(key []byte, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, value)
}

// TokenBalance returns the wrapped token balance of holder.
func (m *Manager) TokenBalance(holder [20]byte) (*big.Int, error) {
	return m.loadBig(joinKey(tokenBalancePrefix, holder[:]))
}

// SetTokenBalance stores the wrapped token balance of holder.
func (m *Manager) SetTokenBalance(holder [20]byte, amount *big.Int) error {
	return m.storeBig(joinKey(tokenBalancePrefix, holder[:]), amount)
}

// TokenAllowance returns how much spender may draw from owner.
func (m *Manager) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	return m.loadBig(joinKey(tokenAllowancePrefix, owner[:], spender[:]))
}

// SetTokenAllowance stores the allowance of spender over owner.
func (m *Manager) SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error {
	return m.storeBig(joinKey(tokenAllowancePrefix, owner[:], spender[:]), amount)
}

// TokenSupply returns the total wrapped supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	return m.loadBig([]byte(tokenSupplyKey))
}

// SetTokenSupply stores the total wrapped supply.
func (m *Manager) SetTokenSupply(amount *big.Int) error {
	return m.storeBig([]byte(tokenSupplyKey), amount)
}

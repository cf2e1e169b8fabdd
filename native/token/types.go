package token

import "math/big"

const (
	Name     = "Wrapped Ether"
	Symbol   = "WETH"
	Decimals = 18
)

// MaxAllowance is treated as an unlimited approval that never decreases.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Metadata describes the wrapped payment token.
type Metadata struct {
	Address     [20]byte `json:"address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply *big.Int `json:"totalSupply"`
}

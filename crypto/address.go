package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const modulePrefix = "nftmarket/module/"

var errEmptyAddress = errors.New("address required")

// HexAddress renders a raw address using the EIP-55 checksummed form.
func HexAddress(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// ParseAddress decodes a 0x-prefixed hex address. Checksums are not enforced
// but the value must be exactly 20 bytes.
func ParseAddress(value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, errEmptyAddress
	}
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(trimmed), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(value string) [20]byte {
	addr, err := ParseAddress(value)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsZero reports whether the supplied address is the empty address.
func IsZero(addr [20]byte) bool {
	return addr == ([20]byte{})
}

// ModuleAddress derives the fixed account address of a native module.
func ModuleAddress(name string) [20]byte {
	hash := ethcrypto.Keccak256([]byte(modulePrefix + strings.TrimSpace(name)))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// CreateAddress derives the address of a collection deployed by the supplied
// account, mirroring the EVM CREATE scheme keccak256(rlp(sender, nonce)).
func CreateAddress(deployer [20]byte, nonce uint64) [20]byte {
	data, err := rlp.EncodeToBytes([]interface{}{deployer[:], nonce})
	if err != nil {
		// rlp cannot fail for a byte slice and an unsigned integer.
		panic(err)
	}
	hash := ethcrypto.Keccak256(data)
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

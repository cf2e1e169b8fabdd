package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func TestParseAddressRoundTrip(t *testing.T) {
	raw := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addr, err := ParseAddress(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := HexAddress(addr); got != raw {
		t.Fatalf("expected %s, got %s", raw, got)
	}
}

func TestParseAddressRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "0x1234", "not-an-address"} {
		if _, err := ParseAddress(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestCreateAddressMatchesGeth(t *testing.T) {
	deployer := common.HexToAddress("0x970E8128AB834E8EAC17Ab8E3812F010678CF791")
	for nonce := uint64(0); nonce < 4; nonce++ {
		want := ethcrypto.CreateAddress(deployer, nonce)
		if got := CreateAddress(deployer, nonce); common.Address(got) != want {
			t.Fatalf("nonce %d: expected %s, got %s", nonce, want.Hex(), HexAddress(got))
		}
	}
}

func TestModuleAddressesDistinct(t *testing.T) {
	seen := map[[20]byte]string{}
	for _, name := range []string{"auction", "marketplace", "token", "factory", "registry", "nft"} {
		addr := ModuleAddress(name)
		if IsZero(addr) {
			t.Fatalf("module %s derived zero address", name)
		}
		if prev, ok := seen[addr]; ok {
			t.Fatalf("module %s collides with %s", name, prev)
		}
		seen[addr] = name
	}
}

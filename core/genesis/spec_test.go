// core/genesis/spec_test.go
package genesis

import (
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"nftmarket/core/state"
	"nftmarket/crypto"
	"nftmarket/native/common"
	"nftmarket/native/registry"
	"nftmarket/storage"
)

const (
	ownerHex = "0x00000000000000000000000000000000000000a1"
	aliceHex = "0x00000000000000000000000000000000000000b1"
	bobHex   = "0x00000000000000000000000000000000000000b2"
)

func writeSpec(t *testing.T, spec map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal spec: %v", err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoadGenesisSpecAndApply(t *testing.T) {
	path := writeSpec(t, map[string]any{
		"genesisTime":    "2024-01-01T00:00:00Z",
		"owner":          ownerHex,
		"marketplaceFee": 30,
		"factoryFee":     "1000",
		"publicCollection": map[string]any{
			"name":       "Public",
			"symbol":     "PUB",
			"royaltyBps": 250,
			"mintFee":    "5",
		},
		"alloc": map[string]string{
			bobHex:   "200",
			aliceHex: "100",
		},
	})
	spec, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if spec.FeeRecipientAddress() != crypto.MustParseAddress(ownerHex) {
		t.Fatalf("fee recipient should default to owner")
	}
	allocs := spec.Allocations()
	if len(allocs) != 2 || allocs[0].Address != crypto.MustParseAddress(aliceHex) {
		t.Fatalf("allocations not sorted: %+v", allocs)
	}

	manager := state.NewManager(storage.NewMemDB())
	if err := Apply(spec, manager, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if manager.Pending() != 0 {
		t.Fatalf("genesis left pending writes")
	}
	ts, err := GenesisTime(manager)
	if err != nil {
		t.Fatalf("genesis time: %v", err)
	}
	if ts != 1704067200 {
		t.Fatalf("unexpected genesis time %d", ts)
	}

	weth, err := manager.RegistryGet(registry.RoleWETH)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if weth != crypto.ModuleAddress(common.ModuleToken) {
		t.Fatalf("weth role not bound to token module")
	}
	cfg, err := manager.MarketConfig()
	if err != nil {
		t.Fatalf("market config: %v", err)
	}
	if cfg.PlatformFee.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("unexpected marketplace fee %s", cfg.PlatformFee)
	}
	factoryCfg, err := manager.FactoryConfig()
	if err != nil {
		t.Fatalf("factory config: %v", err)
	}
	if factoryCfg.PlatformFee.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected factory fee %s", factoryCfg.PlatformFee)
	}
	public, ok, err := manager.NFTCollectionGet(crypto.ModuleAddress(common.ModuleNFT))
	if err != nil || !ok {
		t.Fatalf("public collection missing: %v", err)
	}
	if !public.Public || public.RoyaltyBps != 250 || public.MintFee.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("unexpected public collection %+v", public)
	}
	bal, err := manager.Balance(crypto.MustParseAddress(bobHex))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("unexpected balance %s", bal)
	}

	if err := Apply(spec, manager, 0); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
}

func TestGenesisSpecValidation(t *testing.T) {
	tooHigh := uint64(1001)
	cases := map[string]*GenesisSpec{
		"missing owner":   {},
		"zero owner":      {Owner: "0x0000000000000000000000000000000000000000"},
		"bad time":        {Owner: ownerHex, GenesisTime: "yesterday"},
		"fee too high":    {Owner: ownerHex, AuctionFee: &tooHigh},
		"negative alloc":  {Owner: ownerHex, Alloc: map[string]string{aliceHex: "-1"}},
		"bad alloc addr":  {Owner: ownerHex, Alloc: map[string]string{"alice": "1"}},
		"royalty too big": {Owner: ownerHex, PublicCollection: &PublicCollectionSpec{Name: "a", Symbol: "b", RoyaltyBps: 1001}},
		"unnamed public":  {Owner: ownerHex, PublicCollection: &PublicCollectionSpec{}},
	}
	for name, spec := range cases {
		if err := spec.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	defaults := &GenesisSpec{Owner: ownerHex}
	if err := defaults.Validate(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if defaults.PublicCollectionValue().Symbol != "CL" {
		t.Fatalf("expected default public collection")
	}
}

func TestLoadGenesisSpecRejectsUnknownFields(t *testing.T) {
	path := writeSpec(t, map[string]any{"owner": ownerHex, "validators": []string{}})
	if _, err := LoadGenesisSpec(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

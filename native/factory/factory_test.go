package factory

import (
	"errors"
	"math/big"
	"testing"

	"nftmarket/native/nft"
)

type mockState struct {
	cfg         *Config
	collections map[[20]byte][][20]byte
}

func (m *mockState) FactoryConfig() (*Config, error) {
	clone := *m.cfg
	if m.cfg.PlatformFee != nil {
		clone.PlatformFee = new(big.Int).Set(m.cfg.PlatformFee)
	}
	return &clone, nil
}

func (m *mockState) FactoryConfigPut(cfg *Config) error {
	clone := *cfg
	clone.PlatformFee = new(big.Int).Set(cfg.PlatformFee)
	m.cfg = &clone
	return nil
}

func (m *mockState) FactoryCollections(owner [20]byte) ([][20]byte, error) {
	return append([][20]byte(nil), m.collections[owner]...), nil
}

func (m *mockState) FactoryAppendCollection(owner, collection [20]byte) error {
	m.collections[owner] = append(m.collections[owner], collection)
	return nil
}

type mockDeployer struct {
	deployed []nft.DeployParams
	fail     error
}

func (d *mockDeployer) DeployCollection(params nft.DeployParams) (*nft.Collection, error) {
	if d.fail != nil {
		return nil, d.fail
	}
	d.deployed = append(d.deployed, params)
	return &nft.Collection{Address: params.Address, Name: params.Name, Symbol: params.Symbol, Owner: params.Owner}, nil
}

type transfer struct {
	from, to [20]byte
	amount   *big.Int
}

type mockLedger struct{ transfers []transfer }

func (l *mockLedger) Transfer(from, to [20]byte, amount *big.Int) error {
	l.transfers = append(l.transfers, transfer{from, to, new(big.Int).Set(amount)})
	return nil
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

var (
	moduleAddr = addr(0xF0)
	owner      = addr(1)
	user       = addr(2)
)

func newTestEngine() (*Engine, *mockState, *mockDeployer, *mockLedger) {
	state := &mockState{
		cfg:         &Config{Owner: owner, PlatformFee: new(big.Int).Set(DefaultPlatformFee), FeeRecipient: owner},
		collections: make(map[[20]byte][][20]byte),
	}
	deployer := &mockDeployer{}
	ledger := &mockLedger{}
	engine := NewEngine(moduleAddr)
	engine.SetState(state)
	engine.SetDeployer(deployer)
	engine.SetLedger(ledger)
	return engine, state, deployer, ledger
}

func TestCreateCollectionRequiresFee(t *testing.T) {
	engine, _, deployer, _ := newTestEngine()
	_, err := engine.CreateCollection(user, big.NewInt(0), "name", "symbol", 1000, user)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	_, err = engine.CreateCollection(user, DefaultPlatformFee, "name", "symbol", 1001, user)
	if !errors.Is(err, ErrRoyaltyTooHigh) {
		t.Fatalf("expected royalty too high, got %v", err)
	}
	if len(deployer.deployed) != 0 {
		t.Fatalf("nothing should be deployed")
	}
}

func TestCreateCollectionForwardsFee(t *testing.T) {
	engine, state, deployer, ledger := newTestEngine()
	paid := new(big.Int).Add(DefaultPlatformFee, big.NewInt(7))
	first, err := engine.CreateCollection(user, paid, "name", "symbol", 1000, user)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := engine.CreateCollection(user, DefaultPlatformFee, "other", "OT", 0, user)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first == second {
		t.Fatalf("collection addresses must differ")
	}
	owned, _ := engine.CollectionsOwned(user)
	if len(owned) != 2 || owned[0] != first || owned[1] != second {
		t.Fatalf("unexpected owned collections %v", owned)
	}
	if deployer.deployed[0].Owner != user || deployer.deployed[0].RoyaltyBps != 1000 {
		t.Fatalf("unexpected deploy params %+v", deployer.deployed[0])
	}
	if ledger.transfers[0].to != owner || ledger.transfers[0].amount.Cmp(DefaultPlatformFee) != 0 {
		t.Fatalf("fee not forwarded: %+v", ledger.transfers[0])
	}
	if ledger.transfers[1].to != user || ledger.transfers[1].amount.Int64() != 7 {
		t.Fatalf("excess not refunded: %+v", ledger.transfers[1])
	}
	if state.cfg.Nonce != 2 {
		t.Fatalf("unexpected nonce %d", state.cfg.Nonce)
	}
}

func TestAdminUpdates(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	if err := engine.UpdatePlatformFee(user, big.NewInt(312231)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	half := new(big.Int).Div(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), big.NewInt(2))
	if err := engine.UpdatePlatformFee(owner, half); err != nil {
		t.Fatalf("update fee: %v", err)
	}
	if err := engine.UpdateFeeRecipient(owner, [20]byte{}); !errors.Is(err, ErrEmptyRecipient) {
		t.Fatalf("expected empty recipient, got %v", err)
	}
	if err := engine.UpdateFeeRecipient(owner, user); err != nil {
		t.Fatalf("update recipient: %v", err)
	}
	cfg, _ := engine.Config()
	if cfg.PlatformFee.Cmp(half) != 0 || cfg.FeeRecipient != user {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

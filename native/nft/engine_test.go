package nft

import (
	"errors"
	"math/big"
	"testing"
)

type tokenKey struct {
	collection [20]byte
	id         uint64
}

type operatorKey struct {
	collection, owner, operator [20]byte
}

type balanceKey struct {
	collection, owner [20]byte
}

type mockState struct {
	collections map[[20]byte]*Collection
	tokens      map[tokenKey]*Token
	operators   map[operatorKey]bool
	balances    map[balanceKey]uint64
}

func newMockState() *mockState {
	return &mockState{
		collections: make(map[[20]byte]*Collection),
		tokens:      make(map[tokenKey]*Token),
		operators:   make(map[operatorKey]bool),
		balances:    make(map[balanceKey]uint64),
	}
}

func (m *mockState) NFTCollectionGet(addr [20]byte) (*Collection, bool, error) {
	c, ok := m.collections[addr]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) NFTCollectionPut(c *Collection) error {
	m.collections[c.Address] = c.Clone()
	return nil
}

func (m *mockState) NFTTokenGet(collection [20]byte, id uint64) (*Token, bool, error) {
	t, ok := m.tokens[tokenKey{collection, id}]
	if !ok {
		return nil, false, nil
	}
	return t.Clone(), true, nil
}

func (m *mockState) NFTTokenPut(t *Token) error {
	m.tokens[tokenKey{t.Collection, t.ID}] = t.Clone()
	return nil
}

func (m *mockState) NFTOperatorGet(collection, owner, operator [20]byte) (bool, error) {
	return m.operators[operatorKey{collection, owner, operator}], nil
}

func (m *mockState) NFTOperatorPut(collection, owner, operator [20]byte, approved bool) error {
	m.operators[operatorKey{collection, owner, operator}] = approved
	return nil
}

func (m *mockState) NFTBalanceGet(collection, owner [20]byte) (uint64, error) {
	return m.balances[balanceKey{collection, owner}], nil
}

func (m *mockState) NFTBalancePut(collection, owner [20]byte, count uint64) error {
	m.balances[balanceKey{collection, owner}] = count
	return nil
}

type transfer struct {
	from, to [20]byte
	amount   *big.Int
}

type mockLedger struct {
	transfers []transfer
}

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
	moduleAddr = addr(0xA0)
	deployer   = addr(1)
	alice      = addr(2)
	bob        = addr(3)
	collection = addr(0xC1)
)

func newTestEngine(t *testing.T) (*Engine, *mockState, *mockLedger) {
	t.Helper()
	engine := NewEngine(moduleAddr)
	state := newMockState()
	ledger := &mockLedger{}
	engine.SetState(state)
	engine.SetLedger(ledger)
	if _, err := engine.DeployCollection(DeployParams{
		Address: moduleAddr, Name: "NFT", Symbol: "NFT", Owner: deployer,
		Public: true, MintFee: big.NewInt(100),
	}); err != nil {
		t.Fatalf("deploy public: %v", err)
	}
	if _, err := engine.DeployCollection(DeployParams{
		Address: collection, Name: "name", Symbol: "symbol", Owner: deployer,
		RoyaltyRecipient: deployer, RoyaltyBps: 500,
	}); err != nil {
		t.Fatalf("deploy collection: %v", err)
	}
	return engine, state, ledger
}

func TestMintAssignsIncrementingIDs(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.Mint(deployer, collection, ""); !errors.Is(err, ErrNoTokenURI) {
		t.Fatalf("expected no token uri, got %v", err)
	}
	if _, err := engine.Mint(alice, collection, "hello"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	id, err := engine.Mint(deployer, collection, "hello")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}
	owner, _ := engine.OwnerOf(collection, 1)
	if owner != deployer {
		t.Fatalf("unexpected owner")
	}
	uri, _ := engine.TokenURI(collection, 1)
	if uri != "hello" {
		t.Fatalf("unexpected uri %q", uri)
	}
	id, _ = engine.Mint(deployer, collection, "again")
	if id != 2 {
		t.Fatalf("expected id 2, got %d", id)
	}
	if n, _ := engine.BalanceOf(collection, deployer); n != 2 {
		t.Fatalf("unexpected balance %d", n)
	}
}

func TestPublicMintChargesFee(t *testing.T) {
	engine, _, ledger := newTestEngine(t)
	if _, err := engine.PublicMint(alice, big.NewInt(99), "uri", 500); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := engine.PublicMint(alice, big.NewInt(100), "uri", 1001); !errors.Is(err, ErrRoyaltyTooHigh) {
		t.Fatalf("expected royalty too high, got %v", err)
	}
	id, err := engine.PublicMint(alice, big.NewInt(150), "uri", 500)
	if err != nil {
		t.Fatalf("public mint: %v", err)
	}
	if len(ledger.transfers) != 2 {
		t.Fatalf("expected fee and refund, got %+v", ledger.transfers)
	}
	if ledger.transfers[0].to != deployer || ledger.transfers[0].amount.Int64() != 100 {
		t.Fatalf("unexpected fee transfer %+v", ledger.transfers[0])
	}
	if ledger.transfers[1].to != alice || ledger.transfers[1].amount.Int64() != 50 {
		t.Fatalf("unexpected refund %+v", ledger.transfers[1])
	}
	recipient, royalty, err := engine.RoyaltyInfo(moduleAddr, id, big.NewInt(10_000))
	if err != nil {
		t.Fatalf("royalty info: %v", err)
	}
	if recipient != alice || royalty.Int64() != 500 {
		t.Fatalf("unexpected royalty %x %s", recipient, royalty)
	}
}

func TestPublicMintRejectsPrivateCollectionEngine(t *testing.T) {
	engine := NewEngine(moduleAddr)
	state := newMockState()
	engine.SetState(state)
	engine.SetLedger(&mockLedger{})
	if _, err := engine.DeployCollection(DeployParams{Address: moduleAddr, Owner: deployer}); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := engine.PublicMint(alice, big.NewInt(0), "uri", 0); !errors.Is(err, ErrNotPublic) {
		t.Fatalf("expected not public, got %v", err)
	}
}

func TestRoyaltyInfoUsesCollectionDefault(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	amount := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	recipient, royalty, err := engine.RoyaltyInfo(collection, 1, amount)
	if err != nil {
		t.Fatalf("royalty info: %v", err)
	}
	want := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(500)), big.NewInt(10_000))
	if recipient != deployer || royalty.Cmp(want) != 0 {
		t.Fatalf("unexpected royalty %s want %s", royalty, want)
	}
}

func TestUpdateAndRemoveRoyalty(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if err := engine.UpdateRoyalty(alice, collection, alice, 500); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := engine.UpdateRoyalty(deployer, collection, [20]byte{}, 500); !errors.Is(err, ErrEmptyRecipient) {
		t.Fatalf("expected empty recipient, got %v", err)
	}
	if err := engine.UpdateRoyalty(deployer, collection, alice, 2000); !errors.Is(err, ErrRoyaltyTooHigh) {
		t.Fatalf("expected royalty too high, got %v", err)
	}
	if err := engine.UpdateRoyalty(deployer, collection, alice, 1000); err != nil {
		t.Fatalf("update royalty: %v", err)
	}
	recipient, royalty, _ := engine.RoyaltyInfo(collection, 1, big.NewInt(10_000))
	if recipient != alice || royalty.Int64() != 1000 {
		t.Fatalf("unexpected royalty after update %s", royalty)
	}
	if err := engine.RemoveRoyalty(alice, collection); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if err := engine.RemoveRoyalty(deployer, collection); err != nil {
		t.Fatalf("remove royalty: %v", err)
	}
	_, royalty, _ = engine.RoyaltyInfo(collection, 1, big.NewInt(10_000))
	if royalty.Sign() != 0 {
		t.Fatalf("expected zero royalty, got %s", royalty)
	}
}

func TestTransferRequiresAuthorization(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	id, err := engine.Mint(deployer, collection, "uri")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.TransferFrom(alice, collection, deployer, alice, id); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected not approved, got %v", err)
	}
	if err := engine.TransferFrom(deployer, collection, alice, bob, id); !errors.Is(err, ErrWrongFrom) {
		t.Fatalf("expected wrong from, got %v", err)
	}
	if err := engine.Approve(deployer, collection, alice, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if ok, _ := engine.IsApproved(collection, alice, id); !ok {
		t.Fatalf("expected alice approved")
	}
	if err := engine.TransferFrom(alice, collection, deployer, bob, id); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	owner, _ := engine.OwnerOf(collection, id)
	if owner != bob {
		t.Fatalf("expected bob to own token")
	}
	if approved, _ := engine.GetApproved(collection, id); approved != ([20]byte{}) {
		t.Fatalf("approval should be cleared after transfer")
	}
	if n, _ := engine.BalanceOf(collection, deployer); n != 0 {
		t.Fatalf("unexpected deployer balance %d", n)
	}
}

func TestOperatorApproval(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	id, _ := engine.Mint(deployer, collection, "uri")
	if err := engine.SetApprovalForAll(deployer, collection, alice, true); err != nil {
		t.Fatalf("set approval for all: %v", err)
	}
	if ok, _ := engine.IsApprovedForAll(collection, deployer, alice); !ok {
		t.Fatalf("expected operator approval")
	}
	if err := engine.Approve(alice, collection, bob, id); err != nil {
		t.Fatalf("operator approve: %v", err)
	}
	if err := engine.TransferFrom(alice, collection, deployer, alice, id); err != nil {
		t.Fatalf("operator transfer: %v", err)
	}
	if err := engine.TransferFrom(alice, collection, alice, [20]byte{}, id); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("expected zero address, got %v", err)
	}
}

func TestDeployRejectsDuplicateAndHighRoyalty(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if _, err := engine.DeployCollection(DeployParams{Address: collection, Owner: alice}); !errors.Is(err, ErrCollectionExists) {
		t.Fatalf("expected collection exists, got %v", err)
	}
	if _, err := engine.DeployCollection(DeployParams{Address: addr(0xC2), Owner: alice, RoyaltyBps: 1001}); !errors.Is(err, ErrRoyaltyTooHigh) {
		t.Fatalf("expected royalty too high, got %v", err)
	}
}

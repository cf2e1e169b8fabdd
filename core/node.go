package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	coreerrors "nftmarket/core/errors"
	"nftmarket/core/events"
	"nftmarket/core/genesis"
	corestate "nftmarket/core/state"
	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/auction"
	"nftmarket/native/common"
	"nftmarket/native/factory"
	"nftmarket/native/marketplace"
	"nftmarket/native/nft"
	"nftmarket/native/registry"
	"nftmarket/native/settlement"
	"nftmarket/native/token"
	"nftmarket/observability"
	"nftmarket/observability/metrics"
	"nftmarket/storage"
)

// Node is the central controller: it owns the state, the module engines and
// the clock, and executes calls one at a time.
type Node struct {
	db      storage.Database
	state   *corestate.Manager
	stateMu sync.RWMutex

	nowFn    func() time.Time
	lastTime int64
	callTime int64

	buffer  *events.Buffer
	bus     *events.Bus
	pauses  common.PauseView
	logger  *slog.Logger
	metrics *metrics.MarketMetrics

	registry *registry.Engine
	token    *token.Engine
	nft      *nft.Engine
	factory  *factory.Engine
	market   *marketplace.Engine
	auction  *auction.Engine
}

// Option customises a node at construction.
type Option func(*Node)

// WithEventBacklog sets how many committed events the bus retains for late
// subscribers.
func WithEventBacklog(size int) Option {
	return func(n *Node) { n.bus = events.NewBus(size) }
}

// WithLogger sets the node logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNode opens the node over db. On an empty database spec is applied as
// genesis; otherwise spec is ignored.
func NewNode(db storage.Database, spec *genesis.GenesisSpec, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	n := &Node{
		db:      db,
		state:   corestate.NewManager(db),
		nowFn:   time.Now,
		buffer:  &events.Buffer{},
		bus:     events.NewBus(0),
		logger:  slog.Default(),
		metrics: metrics.Market(),
	}
	for _, opt := range opts {
		opt(n)
	}

	applied, err := genesis.Applied(n.state)
	if err != nil {
		return nil, fmt.Errorf("read genesis marker: %w", err)
	}
	if !applied {
		if spec == nil {
			return nil, coreerrors.ErrGenesisRequired
		}
		if err := genesis.Apply(spec, n.state, n.nowFn().Unix()); err != nil {
			return nil, fmt.Errorf("apply genesis: %w", err)
		}
		n.logger.Info("genesis applied",
			slog.String("owner", crypto.HexAddress(spec.OwnerAddress())),
			slog.Int("allocations", len(spec.Allocations())))
	}
	genesisTime, err := genesis.GenesisTime(n.state)
	if err != nil {
		return nil, fmt.Errorf("read genesis time: %w", err)
	}
	n.lastTime = genesisTime
	n.bus.OnDrop(func() { observability.Events().RecordDropped(1) })
	n.wireEngines()
	return n, nil
}

func (n *Node) wireEngines() {
	now := func() int64 { return n.callTime }

	n.registry = registry.NewEngine(crypto.ModuleAddress(common.ModuleRegistry))
	n.registry.SetState(n.state)
	n.registry.SetEmitter(n.buffer)

	n.token = token.NewEngine(crypto.ModuleAddress(common.ModuleToken))
	n.token.SetState(n.state)
	n.token.SetLedger(n.state)
	n.token.SetEmitter(n.buffer)

	n.nft = nft.NewEngine(crypto.ModuleAddress(common.ModuleNFT))
	n.nft.SetState(n.state)
	n.nft.SetLedger(n.state)
	n.nft.SetEmitter(n.buffer)

	n.factory = factory.NewEngine(crypto.ModuleAddress(common.ModuleFactory))
	n.factory.SetState(n.state)
	n.factory.SetDeployer(n.nft)
	n.factory.SetLedger(n.state)
	n.factory.SetEmitter(n.buffer)

	n.market = marketplace.NewEngine(crypto.ModuleAddress(common.ModuleMarketplace))
	n.market.SetState(n.state)
	n.market.SetAssets(n.nft)
	n.market.SetLedger(n.state)
	n.market.SetRegistry(registryResolver{engine: n.registry}, tokenDirectory{engine: n.token})
	n.market.SetEmitter(n.buffer)
	n.market.SetNowFunc(now)

	n.auction = auction.NewEngine(crypto.ModuleAddress(common.ModuleAuction))
	n.auction.SetState(n.state)
	n.auction.SetAssets(n.nft)
	n.auction.SetMarket(n.market)
	n.auction.SetLedger(n.state)
	n.auction.SetEmitter(n.buffer)
	n.auction.SetNowFunc(now)
}

// SetClock replaces the wall clock. Time never moves backwards across calls
// even if the supplied clock does.
func (n *Node) SetClock(now func() time.Time) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if now == nil {
		now = time.Now
	}
	n.nowFn = now
}

// SetPauses installs the operator pause switches consulted before dispatch.
func (n *Node) SetPauses(p common.PauseView) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.pauses = p
}

func (n *Node) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	n.logger = logger
}

// Events returns the bus carrying committed events.
func (n *Node) Events() *events.Bus { return n.bus }

// ModuleAddress returns the address a module receives value at.
func (n *Node) ModuleAddress(module string) [20]byte { return crypto.ModuleAddress(module) }

// Now returns the time the next call would observe.
func (n *Node) Now() int64 {
	n.stateMu.RLock()
	defer n.stateMu.RUnlock()
	now := n.nowFn().Unix()
	if now < n.lastTime {
		now = n.lastTime
	}
	return now
}

func (n *Node) advanceClock() int64 {
	now := n.nowFn().Unix()
	if now < n.lastTime {
		now = n.lastTime
	}
	n.lastTime = now
	n.callTime = now
	return now
}

// Execute runs call atomically. The call either commits every state change
// and publishes its events, or leaves no trace at all.
func (n *Node) Execute(ctx context.Context, call Call) (*Receipt, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	h, ok := handlers[callKey(call.Module, call.Method)]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", coreerrors.ErrUnknownMethod, call.Module, call.Method)
	}
	value := big.NewInt(0)
	if call.Value != nil {
		value.Set(call.Value)
	}
	if value.Sign() < 0 {
		return nil, coreerrors.ErrNegativeValue
	}
	if value.Sign() > 0 && !h.payable {
		return nil, fmt.Errorf("%w: %s.%s", coreerrors.ErrNotPayable, call.Module, call.Method)
	}

	started := time.Now()
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if err := common.Guard(n.pauses, call.Module); err != nil {
		return nil, err
	}
	ts := n.advanceClock()
	result, nonce, err := n.apply(call, h, value)
	if err == nil {
		err = n.state.Commit()
	}
	n.metrics.ObserveCall(call.Module, call.Method, err, time.Since(started))
	if err != nil {
		n.state.Discard()
		n.buffer.Reset()
		n.logger.Debug("call reverted",
			slog.String("module", call.Module),
			slog.String("method", call.Method),
			slog.String("caller", crypto.HexAddress(call.Caller)),
			slog.String("error", err.Error()))
		return nil, err
	}

	emitted := n.buffer.Flush(n.bus)
	receipt := &Receipt{
		Module:    call.Module,
		Method:    call.Method,
		Caller:    call.Caller,
		Timestamp: ts,
		Nonce:     nonce,
		Result:    result,
		Events:    make([]*types.Event, 0, len(emitted)),
	}
	for _, evt := range emitted {
		observability.Events().RecordEvent(evt.EventType())
		if payload, ok := events.Payload(evt); ok {
			receipt.Events = append(receipt.Events, payload)
		}
	}
	n.record(call, result)
	n.logger.Info("call committed",
		slog.String("module", call.Module),
		slog.String("method", call.Method),
		slog.String("caller", crypto.HexAddress(call.Caller)),
		slog.Int("events", len(receipt.Events)))
	return receipt, nil
}

func (n *Node) apply(call Call, h handler, value *big.Int) (any, uint64, error) {
	if value.Sign() > 0 {
		if err := n.state.Transfer(call.Caller, crypto.ModuleAddress(call.Module), value); err != nil {
			return nil, 0, err
		}
	}
	result, err := h.fn(n, call, value)
	if err != nil {
		return nil, 0, err
	}
	nonce, err := n.state.IncrementNonce(call.Caller)
	if err != nil {
		return nil, 0, err
	}
	return result, nonce, nil
}

func (n *Node) record(call Call, result any) {
	switch r := result.(type) {
	case *settlement.Breakdown:
		n.metrics.RecordSale(call.Module, call.Method, r.Gross)
	}
	switch callKey(call.Module, call.Method) {
	case callKey(common.ModuleAuction, "placeBid"):
		n.metrics.RecordBid()
	case callKey(common.ModuleFactory, "createCollection"):
		n.metrics.RecordCollectionCreated()
	}
}

// Close releases the underlying database.
func (n *Node) Close() {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.db.Close()
}

package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"nftmarket/core"
	"nftmarket/core/genesis"
	"nftmarket/core/types"
	"nftmarket/crypto"
	"nftmarket/native/common"
	"nftmarket/rpc/middleware"
	"nftmarket/storage"
)

const (
	testSecret  = "0123456789abcdef0123456789abcdef"
	testIssuer  = "nftmarket-test"
	genesisUnix = 1_700_000_000
	oneEther    = "1000000000000000000"
)

var (
	ownerAddr  = crypto.MustParseAddress("0x00000000000000000000000000000000000000a1")
	sellerAddr = crypto.MustParseAddress("0x00000000000000000000000000000000000000b1")
	buyerAddr  = crypto.MustParseAddress("0x00000000000000000000000000000000000000b2")
)

type testEnv struct {
	t      *testing.T
	node   *core.Node
	server *httptest.Server
}

type testResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	status int
}

func newTestEnv(t *testing.T, limit middleware.RateLimit) *testEnv {
	t.Helper()
	hundred := new(big.Int).Mul(big.NewInt(100), big.NewInt(1_000_000_000_000_000_000))
	spec := &genesis.GenesisSpec{
		GenesisTime: time.Unix(genesisUnix, 0).UTC().Format(time.RFC3339),
		Owner:       crypto.HexAddress(ownerAddr),
		Alloc: map[string]string{
			crypto.HexAddress(sellerAddr): hundred.String(),
			crypto.HexAddress(buyerAddr):  hundred.String(),
		},
	}
	node, err := core.NewNode(storage.NewMemDB(), spec)
	require.NoError(t, err)
	node.SetClock(func() time.Time { return time.Unix(genesisUnix+60, 0) })

	srv := NewServer(node, Config{
		Auth:      middleware.AuthConfig{HMACSecret: testSecret, Issuer: testIssuer},
		RateLimit: limit,
	}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, node: node, server: ts}
}

func (e *testEnv) token(addr [20]byte) string {
	e.t.Helper()
	token, err := middleware.IssueToken(testSecret, testIssuer, "", addr, time.Minute)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) post(token string, body []byte) testResponse {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/", bytes.NewReader(body))
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()
	var out testResponse
	require.NoError(e.t, json.NewDecoder(res.Body).Decode(&out))
	out.status = res.StatusCode
	return out
}

func (e *testEnv) call(caller *[20]byte, method string, params interface{}) testResponse {
	e.t.Helper()
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(e.t, err)
	token := ""
	if caller != nil {
		token = e.token(*caller)
	}
	return e.post(token, body)
}

func (e *testEnv) mustCall(caller *[20]byte, method string, params interface{}, out interface{}) {
	e.t.Helper()
	res := e.call(caller, method, params)
	require.Nil(e.t, res.Error, "%s: %+v", method, res.Error)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(res.Result, out))
	}
}

func hex(addr [20]byte) string { return crypto.HexAddress(addr) }

func TestCallRoutesCoverEveryModuleMethod(t *testing.T) {
	var want []string
	for _, key := range core.Methods() {
		want = append(want, strings.Replace(key, ".", "_", 1))
	}
	require.Equal(t, want, CallMethods())
	for _, route := range callRoutes {
		payable := core.Payable(route.module, route.method)
		switch route.method {
		case "deposit", "publicMint", "createCollection", "buyItem", "placeBid":
			require.True(t, payable, route.method)
		default:
			require.False(t, payable, "%s.%s", route.module, route.method)
		}
	}
}

func TestMarketplaceSaleOverRPC(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})
	publicNFT := hex(env.node.ModuleAddress(common.ModuleNFT))

	var minted ReceiptResult
	env.mustCall(&sellerAddr, "nft_publicMint", map[string]interface{}{"uri": "ipfs://one"}, &minted)
	require.Equal(t, hex(sellerAddr), minted.Caller)
	require.Equal(t, int64(genesisUnix+60), minted.Timestamp)
	require.NotEmpty(t, minted.Events)

	env.mustCall(&sellerAddr, "nft_setApprovalForAll", map[string]interface{}{
		"collection": publicNFT,
		"operator":   hex(env.node.ModuleAddress(common.ModuleMarketplace)),
		"approved":   true,
	}, nil)
	env.mustCall(&sellerAddr, "marketplace_listItem", map[string]interface{}{
		"asset": publicNFT, "tokenId": 1, "price": oneEther,
	}, nil)

	var listing ListingResult
	env.mustCall(nil, "marketplace_listing", map[string]interface{}{"asset": publicNFT, "tokenId": 1}, &listing)
	require.True(t, listing.Listed)
	require.Equal(t, oneEther, listing.Price)

	var receipt struct {
		Result SettlementResult `json:"result"`
		Events []*types.Event   `json:"events"`
	}
	env.mustCall(&buyerAddr, "marketplace_buyItem", map[string]interface{}{
		"asset": publicNFT, "tokenId": 1, "value": "1200000000000000000",
	}, &receipt)
	require.Equal(t, oneEther, receipt.Result.Gross)
	require.Equal(t, "25000000000000000", receipt.Result.PlatformFee)
	require.Equal(t, "10000000000000000", receipt.Result.Royalty)
	require.Equal(t, "965000000000000000", receipt.Result.SellerProceeds)
	require.Equal(t, hex(ownerAddr), receipt.Result.RoyaltyRecipient)

	var owner string
	env.mustCall(nil, "nft_ownerOf", map[string]interface{}{"collection": publicNFT, "tokenId": 1}, &owner)
	require.Equal(t, hex(buyerAddr), owner)

	var account AccountResult
	env.mustCall(nil, "account_get", map[string]interface{}{"address": hex(buyerAddr)}, &account)
	require.Equal(t, "99000000000000000000", account.Balance)
	require.Equal(t, uint64(1), account.Nonce)
}

func TestWriteRequiresCaller(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})
	res := env.call(nil, "nft_publicMint", map[string]interface{}{"uri": "ipfs://x"})
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.Equal(t, codeUnauthorized, res.Error.Code)
}

func TestRevertsAreClassified(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})
	publicNFT := hex(env.node.ModuleAddress(common.ModuleNFT))

	res := env.call(&buyerAddr, "marketplace_buyItem", map[string]interface{}{
		"asset": publicNFT, "tokenId": 7, "value": oneEther,
	})
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, codeStateConflict, res.Error.Code)
	require.Equal(t, "item is not listed", res.Error.Message)

	res = env.call(&sellerAddr, "marketplace_updatePlatformFee", map[string]interface{}{"fee": "10"})
	require.Equal(t, codeNotAuthorized, res.Error.Code)
	require.Equal(t, "not owner", res.Error.Message)

	res = env.call(&sellerAddr, "marketplace_listItem", map[string]interface{}{
		"asset": publicNFT, "tokenId": 1, "price": oneEther, "value": "1",
	})
	require.Equal(t, codeValue, res.Error.Code)

	res = env.call(&sellerAddr, "auction_createAuction", map[string]interface{}{
		"asset": publicNFT, "tokenId": 1, "startTime": genesisUnix, "endTime": genesisUnix + 30,
	})
	require.NotNil(t, res.Error)

	// Nothing above committed, so the seller's nonce is untouched.
	var account AccountResult
	env.mustCall(nil, "account_get", map[string]interface{}{"address": hex(sellerAddr)}, &account)
	require.Equal(t, uint64(0), account.Nonce)
}

func TestMalformedRequests(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})

	res := env.post("", []byte("{not json"))
	require.Equal(t, codeParseError, res.Error.Code)

	res = env.call(nil, "market_nothing", nil)
	require.Equal(t, http.StatusNotFound, res.status)
	require.Equal(t, codeMethodNotFound, res.Error.Code)

	res = env.call(&sellerAddr, "marketplace_listItem", map[string]interface{}{
		"asset": "not-an-address", "tokenId": 1, "price": "1",
	})
	require.Equal(t, codeInvalidParams, res.Error.Code)

	res = env.call(&sellerAddr, "marketplace_listItem", map[string]interface{}{
		"asset": hex(sellerAddr), "tokenId": 1, "price": "1", "colour": "blue",
	})
	require.Equal(t, codeInvalidParams, res.Error.Code)

	res = env.call(&sellerAddr, "token_withdraw", map[string]interface{}{"amount": "lots"})
	require.Equal(t, codeInvalidParams, res.Error.Code)
}

func TestQueries(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})

	var now map[string]int64
	env.mustCall(nil, "node_time", nil, &now)
	require.Equal(t, int64(genesisUnix+60), now["now"])

	var weth string
	env.mustCall(nil, "registry_lookup", map[string]interface{}{"role": "weth"}, &weth)
	require.Equal(t, hex(env.node.ModuleAddress(common.ModuleToken)), weth)

	var cfg ConfigResult
	env.mustCall(nil, "marketplace_config", nil, &cfg)
	require.Equal(t, "25", cfg.PlatformFee)
	require.Equal(t, hex(ownerAddr), cfg.FeeRecipient)

	env.mustCall(nil, "auction_config", nil, &cfg)
	require.Equal(t, "100", cfg.PlatformFee)
	require.NotNil(t, cfg.Paused)
	require.False(t, *cfg.Paused)

	var collection CollectionResult
	env.mustCall(nil, "nft_collection", map[string]interface{}{
		"collection": hex(env.node.ModuleAddress(common.ModuleNFT)),
	}, &collection)
	require.True(t, collection.Public)
	require.Equal(t, "CL", collection.Symbol)

	var methods []string
	env.mustCall(nil, "rpc_methods", nil, &methods)
	require.Contains(t, methods, "marketplace_buyItem")
	require.Contains(t, methods, "auction_highestBid")
}

func TestRateLimitRejectsBurst(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{RatePerSecond: 0.001, Burst: 1})

	res := env.call(nil, "node_time", nil)
	require.Nil(t, res.Error)

	res = env.call(nil, "node_time", nil)
	require.Equal(t, http.StatusTooManyRequests, res.status)
	require.Equal(t, codeRateLimited, res.Error.Code)
}

func TestEventStreamReplaysBacklog(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})
	env.mustCall(&sellerAddr, "nft_publicMint", map[string]interface{}{"uri": "ipfs://one"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?module=nft"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var evt types.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	require.True(t, strings.HasPrefix(evt.Type, "nft."), evt.Type)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, middleware.RateLimit{})
	env.mustCall(nil, "node_time", nil, nil)

	res, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get(middleware.HeaderRequestID))

	metrics, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "nftmarket_rpc_requests_total")
}

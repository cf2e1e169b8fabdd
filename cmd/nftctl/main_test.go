package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nftmarket/rpc/middleware"
)

const testConfig = `ListenAddress = ":0"
DataDir = "./data"

[RPC]
JWTSecret = "0123456789abcdef0123456789abcdef"
Issuer = "nftmarket"

[Genesis]
Owner = "0x00000000000000000000000000000000000000a1"
`

func TestRunTokenSignsVerifiableToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	var out bytes.Buffer
	caller := "0x00000000000000000000000000000000000000B1"
	require.NoError(t, runToken([]string{"-config", path, "-caller", caller}, &out))

	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		HMACSecret: "0123456789abcdef0123456789abcdef",
		Issuer:     "nftmarket",
	}, nil)
	addr, err := auth.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, byte(0xb1), addr[19])
}

func TestRunCallSendsRequest(t *testing.T) {
	var got map[string]interface{}
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"now":42}}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := runCall([]string{"-url", srv.URL, "-token", "abc", "marketplace_listing", `{"asset":"0x01","tokenId":1}`}, &out)
	require.NoError(t, err)
	require.Equal(t, "Bearer abc", authHeader)
	require.Equal(t, "marketplace_listing", got["method"])
	require.Len(t, got["params"], 1)
	require.Contains(t, out.String(), `"now": 42`)
}

func TestRunCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32031,"message":"item is not listed"}}`))
	}))
	defer srv.Close()

	err := runCall([]string{"-url", srv.URL, "marketplace_buyItem"}, io.Discard)
	require.ErrorContains(t, err, "item is not listed")

	err = runCall([]string{"-url", srv.URL, "marketplace_buyItem", "{broken"}, io.Discard)
	require.ErrorContains(t, err, "JSON object")
}

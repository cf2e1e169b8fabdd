package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"nftmarket/config"
	"nftmarket/crypto"
	"nftmarket/rpc"
	"nftmarket/rpc/middleware"
)

const (
	tokenCommand   = "token"
	callCommand    = "call"
	methodsCommand = "methods"
	defaultConfig  = "./config.toml"
	defaultURL     = "http://127.0.0.1:8080"
	tokenEnv       = "NFTMARKET_TOKEN"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case tokenCommand:
		err = runToken(os.Args[2:], os.Stdout)
	case callCommand:
		err = runCall(os.Args[2:], os.Stdout)
	case methodsCommand:
		for _, method := range rpc.CallMethods() {
			fmt.Println(method)
		}
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  nftctl token -caller <0xaddress> [-config %s] [-ttl 1h]
  nftctl call [-url %s] [-token <jwt>] <method> [params-json]
  nftctl methods
`, defaultConfig, defaultURL)
}

// runToken signs a caller token with the node's configured secret.
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(tokenCommand, flag.ContinueOnError)
	configPath := fs.String("config", defaultConfig, "Path to the node config file")
	callerFlag := fs.String("caller", "", "Caller address the token authenticates")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := crypto.ParseAddress(*callerFlag)
	if err != nil {
		return fmt.Errorf("caller: %w", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secret, err := cfg.RPC.ResolveSecret()
	if err != nil {
		return err
	}
	token, err := middleware.IssueToken(secret, cfg.RPC.Issuer, cfg.RPC.Audience, caller, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// runCall issues one JSON-RPC request and prints the response.
func runCall(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(callCommand, flag.ContinueOnError)
	url := fs.String("url", defaultURL, "Node RPC endpoint")
	token := fs.String("token", os.Getenv(tokenEnv), "Caller token (defaults to $"+tokenEnv+")")
	timeout := fs.Duration("timeout", 15*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("method required")
	}
	body, err := buildRequest(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*url, "/")+"/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t := strings.TrimSpace(*token); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	client := &http.Client{Timeout: *timeout}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var resp rpc.RPCResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", res.StatusCode, err)
	}
	if resp.Error != nil {
		if resp.Error.Data != nil {
			return fmt.Errorf("%s (code %d): %v", resp.Error.Message, resp.Error.Code, resp.Error.Data)
		}
		return fmt.Errorf("%s (code %d)", resp.Error.Message, resp.Error.Code)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp.Result)
}

func buildRequest(method, params string) ([]byte, error) {
	req := rpc.RPCRequest{JSONRPC: "2.0", Method: method, ID: 1}
	if trimmed := strings.TrimSpace(params); trimmed != "" {
		if !json.Valid([]byte(trimmed)) {
			return nil, fmt.Errorf("params must be a JSON object")
		}
		req.Params = []json.RawMessage{json.RawMessage(trimmed)}
	}
	return json.Marshal(req)
}

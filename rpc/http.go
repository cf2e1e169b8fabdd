package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nftmarket/core"
	"nftmarket/observability"
	"nftmarket/rpc/middleware"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Config configures the HTTP surface of the node.
type Config struct {
	ListenAddress  string
	Auth           middleware.AuthConfig
	RateLimit      middleware.RateLimit
	TrustedProxies []string
	CORSOrigins    []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	// Tracing wraps the router in otelhttp so inbound trace context is
	// honoured and every request gets a server span.
	Tracing bool
}

type methodHandler func(ctx context.Context, params json.RawMessage) (interface{}, *RPCError)

type Server struct {
	node    *core.Node
	cfg     Config
	logger  *slog.Logger
	router  chi.Router
	handler http.Handler
	methods map[string]methodHandler
	tracer  trace.Tracer
	calls   metric.Int64Counter

	mu         sync.Mutex
	httpServer *http.Server
}

func NewServer(node *core.Node, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		node:   node,
		cfg:    cfg,
		logger: logger,
	}
	s.tracer = otel.Tracer("nftmarket/rpc")
	calls, err := otel.Meter("nftmarket/rpc").Int64Counter("nftmarket.rpc.calls",
		metric.WithDescription("JSON-RPC calls by method and outcome code."))
	if err != nil {
		logger.Warn("rpc call counter unavailable", slog.Any("error", err))
	}
	s.calls = calls
	s.methods = make(map[string]methodHandler)
	s.registerCalls()
	s.registerQueries()

	auth := middleware.NewAuthenticator(cfg.Auth, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.TrustedProxies, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins}))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		r.Use(limiter.Middleware())
		r.Post("/", s.handle)
		r.Get("/ws", s.handleEventsWS)
	})
	s.router = r
	s.handler = r
	if cfg.Tracing {
		s.handler = otelhttp.NewHandler(r, "nftmarket.rpc")
	}
	return s
}

// Handler exposes the routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
	s.logger.Info("JSON-RPC server listening", slog.String("address", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// handle is the JSON-RPC entry point.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = "request body too large"
		}
		writeError(w, status, nil, codeInvalidRequest, message, nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to parse request", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	if len(req.Params) > 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected a single params object", nil)
		return
	}
	var params json.RawMessage
	if len(req.Params) == 1 {
		params = req.Params[0]
	}

	handler, ok := s.methods[method]
	if !ok {
		observability.ModuleMetrics().Observe("unknown", "unknown", codeMethodNotFound, 0)
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", method)
		return
	}

	module, name := splitMethod(method)
	ctx, span := s.tracer.Start(r.Context(), method, trace.WithAttributes(
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.service", module),
		attribute.String("rpc.method", name),
	))
	start := time.Now()
	result, rpcErr := handler(ctx, params)
	code := 0
	if rpcErr != nil {
		code = rpcErr.Code
		span.SetStatus(codes.Error, rpcErr.Message)
	}
	span.SetAttributes(attribute.Int("rpc.jsonrpc.error_code", code))
	span.End()
	observability.ModuleMetrics().Observe(module, name, code, time.Since(start))
	if s.calls != nil {
		s.calls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.Int("code", code),
		))
	}
	if rpcErr != nil {
		s.logger.Debug("rpc error",
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			slog.String("method", method),
			slog.Int("code", rpcErr.Code),
			slog.String("error", rpcErr.Message))
		writeError(w, statusFor(rpcErr.Code), req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":        "ok",
		"time":          s.node.Now(),
		"eventsDropped": s.node.Events().Dropped(),
	})
}

// splitMethod separates "module_method" into its parts for metric labels.
func splitMethod(method string) (string, string) {
	module, name, ok := strings.Cut(method, "_")
	if !ok {
		return "rpc", method
	}
	return module, name
}

func statusFor(code int) int {
	switch code {
	case codeParseError, codeInvalidRequest, codeInvalidParams:
		return http.StatusBadRequest
	case codeMethodNotFound:
		return http.StatusNotFound
	case codeUnauthorized:
		return http.StatusUnauthorized
	case codeRateLimited:
		return http.StatusTooManyRequests
	case codeServerError:
		return http.StatusInternalServerError
	}
	// Reverted calls are well-formed requests; the failure is in the result.
	return http.StatusOK
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"nftmarket/config"
	"nftmarket/core"
	coreerrors "nftmarket/core/errors"
	"nftmarket/core/genesis"
	"nftmarket/observability/logging"
	telemetry "nftmarket/observability/otel"
	"nftmarket/relay"
	"nftmarket/rpc"
	"nftmarket/rpc/middleware"
	"nftmarket/storage"
)

const (
	envName         = "NFTMARKET_ENV"
	genesisPathEnv  = "NFTMARKET_GENESIS"
	shutdownTimeout = 10 * time.Second
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file (.toml, .yaml or .yml)")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides NFTMARKET_GENESIS and config GenesisFile)")
	flag.Parse()

	if err := run(*configFile, *genesisFlag); err != nil {
		fmt.Fprintf(os.Stderr, "nftmarketd: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, genesisFlag string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	env := strings.TrimSpace(os.Getenv(envName))
	if env == "" {
		env = cfg.Log.Env
	}
	logger := logging.Setup("nftmarketd", env, logging.Options{
		Level:      level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "nftmarketd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	spec, err := resolveGenesis(cfg, genesisFlag)
	if err != nil {
		return fmt.Errorf("resolve genesis: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	node, err := core.NewNode(db, spec, core.WithEventBacklog(cfg.RPC.EventBacklog), core.WithLogger(logger))
	if err != nil {
		db.Close()
		if errors.Is(err, coreerrors.ErrGenesisRequired) {
			return fmt.Errorf("%w: set Genesis in %s or pass -genesis", err, configFile)
		}
		return fmt.Errorf("start node: %w", err)
	}
	defer node.Close()
	node.SetPauses(cfg.Pauses.Set())

	secret, err := cfg.RPC.ResolveSecret()
	if err != nil {
		return err
	}
	readTimeout, writeTimeout, idleTimeout := cfg.RPC.Timeouts()
	server := rpc.NewServer(node, rpc.Config{
		ListenAddress: cfg.ListenAddress,
		Auth: middleware.AuthConfig{
			HMACSecret: secret,
			Issuer:     cfg.RPC.Issuer,
			Audience:   cfg.RPC.Audience,
			ClockSkew:  time.Duration(cfg.RPC.ClockSkewSeconds) * time.Second,
		},
		RateLimit: middleware.RateLimit{
			RatePerSecond: cfg.RPC.RateLimitPerSecond,
			Burst:         cfg.RPC.RateLimitBurst,
		},
		TrustedProxies: cfg.RPC.TrustedProxies,
		CORSOrigins:    cfg.RPC.CORSOrigins,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		Tracing:        cfg.Telemetry.Traces,
	}, logger)

	logger.Info("nftmarketd started",
		slog.String("network", cfg.NetworkName),
		slog.String("listen", cfg.ListenAddress),
		slog.String("storage", cfg.Storage.Backend),
		slog.Int64("time", node.Now()))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Relay.Enabled() {
		pub, err := relay.NewRedisPublisher(ctx, relay.RedisConfig{
			Addr:       cfg.Relay.RedisAddr,
			Password:   cfg.Relay.RedisPassword,
			DB:         cfg.Relay.RedisDB,
			TLSEnabled: cfg.Relay.RedisTLS,
		})
		if err != nil {
			return fmt.Errorf("event relay: %w", err)
		}
		defer pub.Close()
		done := relay.New(node.Events(), pub, cfg.Relay.ChannelPrefix, logger).Start(gctx)
		g.Go(func() error {
			<-done
			return nil
		})
		logger.Info("event relay enabled", slog.String("redis", cfg.Relay.RedisAddr))
	}
	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openDatabase opens the configured state backend.
func openDatabase(ctx context.Context, cfg *config.Config) (storage.Database, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		return storage.NewPostgresDB(ctx, storage.PostgresConfig{
			DSN:      cfg.Storage.PostgresDSN,
			Table:    cfg.Storage.PostgresTable,
			MaxConns: cfg.Storage.PostgresMaxConns,
		})
	default:
		return storage.NewLevelDB(cfg.DataDir)
	}
}

// resolveGenesis picks the genesis source: the -genesis flag, then the
// NFTMARKET_GENESIS environment variable, then the config file.
func resolveGenesis(cfg *config.Config, flagPath string) (*genesis.GenesisSpec, error) {
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(genesisPathEnv))
	}
	if path != "" {
		return genesis.LoadGenesisSpec(path)
	}
	return cfg.GenesisSpec()
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// MinJWTSecretLength is the shortest HMAC secret accepted for caller tokens.
var MinJWTSecretLength = 32

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must be set")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must be set")
	}
	switch c.Storage.Backend {
	case StorageLevelDB:
	case StoragePostgres:
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			return fmt.Errorf("storage: PostgresDSN must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if c.RPC.RateLimitPerSecond < 0 || c.RPC.RateLimitBurst < 0 {
		return fmt.Errorf("rpc: rate limit must not be negative")
	}
	if c.RPC.RateLimitPerSecond > 0 && c.RPC.RateLimitBurst == 0 {
		return fmt.Errorf("rpc: RateLimitBurst must be positive when RateLimitPerSecond is set")
	}
	if c.RPC.ReadTimeout < 0 || c.RPC.WriteTimeout < 0 || c.RPC.IdleTimeout < 0 {
		return fmt.Errorf("rpc: timeouts must not be negative")
	}
	if c.RPC.ClockSkewSeconds < 0 {
		return fmt.Errorf("rpc: ClockSkewSeconds must not be negative")
	}
	if _, err := c.RPC.ResolveSecret(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	if (c.Telemetry.Traces || c.Telemetry.Metrics) && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return fmt.Errorf("telemetry: Endpoint must be set when export is enabled")
	}
	if c.Relay.RedisDB < 0 {
		return fmt.Errorf("relay: RedisDB must not be negative")
	}
	if strings.TrimSpace(c.GenesisFile) == "" {
		if err := c.Genesis.Validate(); err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log: unknown level %q", level)
	}
}

package config

import (
	"strings"

	"nftmarket/native/common"
)

// RPCConfig configures the JSON-RPC server.
type RPCConfig struct {
	JWTSecret          string   `toml:"JWTSecret" yaml:"jwtSecret"`
	JWTSecretEnv       string   `toml:"JWTSecretEnv" yaml:"jwtSecretEnv"`
	Issuer             string   `toml:"Issuer" yaml:"issuer"`
	Audience           string   `toml:"Audience" yaml:"audience"`
	ClockSkewSeconds   int      `toml:"ClockSkewSeconds" yaml:"clockSkewSeconds"`
	RateLimitPerSecond float64  `toml:"RateLimitPerSecond" yaml:"rateLimitPerSecond"`
	RateLimitBurst     int      `toml:"RateLimitBurst" yaml:"rateLimitBurst"`
	ReadTimeout        int      `toml:"ReadTimeout" yaml:"readTimeout"`
	WriteTimeout       int      `toml:"WriteTimeout" yaml:"writeTimeout"`
	IdleTimeout        int      `toml:"IdleTimeout" yaml:"idleTimeout"`
	EventBacklog       int      `toml:"EventBacklog" yaml:"eventBacklog"`
	TrustedProxies     []string `toml:"TrustedProxies" yaml:"trustedProxies"`
	CORSOrigins        []string `toml:"CORSOrigins" yaml:"corsOrigins"`
}

// Storage backends.
const (
	StorageLevelDB  = "leveldb"
	StoragePostgres = "postgres"
)

// StorageConfig selects where node state is persisted. LevelDB lives under
// DataDir; Postgres keeps state in one key/value table.
type StorageConfig struct {
	Backend          string `toml:"Backend" yaml:"backend"`
	PostgresDSN      string `toml:"PostgresDSN" yaml:"postgresDSN"`
	PostgresTable    string `toml:"PostgresTable" yaml:"postgresTable"`
	PostgresMaxConns int    `toml:"PostgresMaxConns" yaml:"postgresMaxConns"`
}

// LogConfig configures structured logging. File enables rotated file output
// in addition to stdout.
type LogConfig struct {
	Level      string `toml:"Level" yaml:"level"`
	Env        string `toml:"Env" yaml:"env"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays" yaml:"maxAgeDays"`
	Compress   bool   `toml:"Compress" yaml:"compress"`
}

// TelemetryConfig configures OTLP export of traces and metrics. Headers uses
// the "key=value,key=value" form of OTEL_EXPORTER_OTLP_HEADERS.
type TelemetryConfig struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
}

// RelayConfig forwards committed events to Redis pub/sub when RedisAddr is
// set. Channels are named "<ChannelPrefix>.<module>".
type RelayConfig struct {
	RedisAddr     string `toml:"RedisAddr" yaml:"redisAddr"`
	RedisPassword string `toml:"RedisPassword" yaml:"redisPassword"`
	RedisDB       int    `toml:"RedisDB" yaml:"redisDB"`
	RedisTLS      bool   `toml:"RedisTLS" yaml:"redisTLS"`
	ChannelPrefix string `toml:"ChannelPrefix" yaml:"channelPrefix"`
}

// Enabled reports whether a relay target is configured.
func (r RelayConfig) Enabled() bool { return strings.TrimSpace(r.RedisAddr) != "" }

// Pauses lets an operator halt individual modules without touching state.
type Pauses struct {
	Registry    bool `toml:"Registry" yaml:"registry"`
	Token       bool `toml:"Token" yaml:"token"`
	NFT         bool `toml:"NFT" yaml:"nft"`
	Factory     bool `toml:"Factory" yaml:"factory"`
	Marketplace bool `toml:"Marketplace" yaml:"marketplace"`
	Auction     bool `toml:"Auction" yaml:"auction"`
}

// Set converts the switches into the guard consulted by the node.
func (p Pauses) Set() common.PauseSet {
	return common.PauseSet{
		common.ModuleRegistry:    p.Registry,
		common.ModuleToken:       p.Token,
		common.ModuleNFT:         p.NFT,
		common.ModuleFactory:     p.Factory,
		common.ModuleMarketplace: p.Marketplace,
		common.ModuleAuction:     p.Auction,
	}
}

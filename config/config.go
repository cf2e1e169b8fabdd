package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nftmarket/core/genesis"
)

type Config struct {
	ListenAddress string              `toml:"ListenAddress" yaml:"listenAddress"`
	DataDir       string              `toml:"DataDir" yaml:"dataDir"`
	GenesisFile   string              `toml:"GenesisFile" yaml:"genesisFile"`
	NetworkName   string              `toml:"NetworkName" yaml:"networkName"`
	Storage       StorageConfig       `toml:"Storage" yaml:"storage"`
	RPC           RPCConfig           `toml:"RPC" yaml:"rpc"`
	Log           LogConfig           `toml:"Log" yaml:"log"`
	Telemetry     TelemetryConfig     `toml:"Telemetry" yaml:"telemetry"`
	Relay         RelayConfig         `toml:"Relay" yaml:"relay"`
	Pauses        Pauses              `toml:"Pauses" yaml:"pauses"`
	Genesis       genesis.GenesisSpec `toml:"Genesis" yaml:"genesis"`
}

// Load loads the configuration from path. Files ending in .yaml or .yml are
// decoded as YAML, everything else as TOML. A missing file is created with
// defaults. A .env file in the working directory is loaded first and
// NFTMARKET_* variables override the decoded values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := createDefault(path)
		if err != nil {
			return nil, err
		}
		applyEnvOverrides(cfg)
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg := &Config{}
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %q: %w", path, err)
		}
	} else {
		meta, err := toml.Decode(string(raw), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config %q: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
		}
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./nftmarket-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "nftmarket-local"
	}
	if strings.TrimSpace(c.Relay.ChannelPrefix) == "" {
		c.Relay.ChannelPrefix = "nftmarket"
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = StorageLevelDB
	}
	if c.RPC.ReadTimeout == 0 {
		c.RPC.ReadTimeout = 15
	}
	if c.RPC.WriteTimeout == 0 {
		c.RPC.WriteTimeout = 15
	}
	if c.RPC.IdleTimeout == 0 {
		c.RPC.IdleTimeout = 60
	}
	if c.RPC.ClockSkewSeconds == 0 {
		c.RPC.ClockSkewSeconds = 120
	}
	if c.RPC.EventBacklog == 0 {
		c.RPC.EventBacklog = 256
	}
	if c.RPC.TrustedProxies == nil {
		c.RPC.TrustedProxies = []string{}
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

// applyEnvOverrides lets operators inject deployment specific values without
// editing the file. Unset or empty variables leave the field untouched.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.ListenAddress, "NFTMARKET_LISTEN_ADDRESS")
	setStr(&cfg.DataDir, "NFTMARKET_DATA_DIR")
	setStr(&cfg.GenesisFile, "NFTMARKET_GENESIS_FILE")
	setStr(&cfg.Storage.Backend, "NFTMARKET_STORAGE_BACKEND")
	setStr(&cfg.Storage.PostgresDSN, "NFTMARKET_POSTGRES_DSN")
	setStr(&cfg.Log.Level, "NFTMARKET_LOG_LEVEL")
	setStr(&cfg.Telemetry.Endpoint, "NFTMARKET_OTLP_ENDPOINT")
	setStr(&cfg.Relay.RedisAddr, "NFTMARKET_REDIS_ADDR")
	setStr(&cfg.Relay.RedisPassword, "NFTMARKET_REDIS_PASSWORD")
}

func setStr(dst *string, env string) {
	if value := strings.TrimSpace(os.Getenv(env)); value != "" {
		*dst = value
	}
}

// ResolveSecret returns the HMAC secret used to verify caller tokens. An
// environment variable named by JWTSecretEnv takes precedence.
func (r RPCConfig) ResolveSecret() (string, error) {
	secret := r.JWTSecret
	if env := strings.TrimSpace(r.JWTSecretEnv); env != "" {
		value, ok := os.LookupEnv(env)
		if !ok {
			return "", fmt.Errorf("rpc: JWT secret env %s is not set", env)
		}
		secret = value
	}
	secret = strings.TrimSpace(secret)
	if len(secret) < MinJWTSecretLength {
		return "", fmt.Errorf("rpc: JWT secret must be at least %d characters", MinJWTSecretLength)
	}
	return secret, nil
}

// Timeouts returns the configured read, write and idle timeouts.
func (r RPCConfig) Timeouts() (read, write, idle time.Duration) {
	return time.Duration(r.ReadTimeout) * time.Second,
		time.Duration(r.WriteTimeout) * time.Second,
		time.Duration(r.IdleTimeout) * time.Second
}

// createDefault creates and saves a default configuration file. The genesis
// owner is left empty and must be filled in before the node can start.
func createDefault(path string) (*Config, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	cfg := &Config{
		ListenAddress: ":8080",
		DataDir:       "./nftmarket-data",
		NetworkName:   "nftmarket-local",
		RPC: RPCConfig{
			JWTSecret:          hex.EncodeToString(secret),
			Issuer:             "nftmarket",
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
		},
		Log: LogConfig{Level: "info"},
		Genesis: genesis.GenesisSpec{
			PublicCollection: genesis.DefaultPublicCollection(),
		},
	}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

// GenesisSpec returns the genesis to apply on an empty database: the
// GenesisFile when one is configured, otherwise the inline Genesis section.
func (c *Config) GenesisSpec() (*genesis.GenesisSpec, error) {
	if path := strings.TrimSpace(c.GenesisFile); path != "" {
		return genesis.LoadGenesisSpec(path)
	}
	spec := c.Genesis
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

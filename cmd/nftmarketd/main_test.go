package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nftmarket/config"
	"nftmarket/core/genesis"
	"nftmarket/crypto"
)

const (
	configOwner = "0x00000000000000000000000000000000000000a1"
	fileOwner   = "0x00000000000000000000000000000000000000a2"
)

func writeGenesis(t *testing.T, owner string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"owner":"`+owner+`"}`), 0o600))
	return path
}

func TestResolveGenesisPrefersFlagThenEnv(t *testing.T) {
	cfg := &config.Config{Genesis: genesis.GenesisSpec{Owner: configOwner}}

	spec, err := resolveGenesis(cfg, "")
	require.NoError(t, err)
	require.Equal(t, configOwner, spec.Owner)

	t.Setenv(genesisPathEnv, writeGenesis(t, fileOwner))
	spec, err = resolveGenesis(cfg, "")
	require.NoError(t, err)
	require.Equal(t, crypto.MustParseAddress(fileOwner), crypto.MustParseAddress(spec.Owner))

	flagOwner := "0x00000000000000000000000000000000000000a3"
	spec, err = resolveGenesis(cfg, writeGenesis(t, flagOwner))
	require.NoError(t, err)
	require.Equal(t, flagOwner, spec.Owner)
}

func TestOpenDatabaseLevelDB(t *testing.T) {
	cfg := &config.Config{
		DataDir: filepath.Join(t.TempDir(), "state"),
		Storage: config.StorageConfig{Backend: config.StorageLevelDB},
	}
	db, err := openDatabase(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)
}

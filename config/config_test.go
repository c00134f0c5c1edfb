package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, "predifi-local", cfg.NetworkName)
	require.Equal(t, uint32(100), cfg.FeeBps)
	require.NotEmpty(t, cfg.Tokens)

	// loading the generated file back must round-trip
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
DataDir = "/var/lib/predifi"
NetworkName = "predifi-test"
Treasury = "0x00112233445566778899aabbccddeeff00112233"
FeeBps = 250
Tokens = ["USDC", "DAI"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "predifi-test", cfg.NetworkName)
	require.Equal(t, uint32(250), cfg.FeeBps)
	require.Len(t, cfg.Tokens, 2)

	addr, err := cfg.TreasuryAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x00), addr[0])
	require.Equal(t, byte(0x33), addr[19])
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "fee.toml")
	require.NoError(t, os.WriteFile(path, []byte("FeeBps = 20000\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	path = filepath.Join(dir, "treasury.toml")
	require.NoError(t, os.WriteFile(path, []byte("Treasury = \"0x1234\"\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
}

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"predifi/native/market"
)

type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	NetworkName    string `toml:"NetworkName"`

	// Treasury is the hex-encoded 20-byte fee destination address.
	Treasury             string `toml:"Treasury"`
	FeeBps               uint32 `toml:"FeeBps"`
	AllowEarlyResolution bool   `toml:"AllowEarlyResolution"`

	MaxPriceAgeSeconds    int64 `toml:"MaxPriceAgeSeconds"`
	MinConfidenceRatioBps int64 `toml:"MinConfidenceRatioBps"`

	// Tokens lists the symbols registered as valid stake denominations at
	// startup.
	Tokens []string `toml:"Tokens"`

	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "predifi-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./predifi-data"
	}
	if cfg.Tokens == nil {
		cfg.Tokens = []string{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FeeBps > market.MaxBps {
		return fmt.Errorf("config: FeeBps %d exceeds %d", c.FeeBps, market.MaxBps)
	}
	if c.MaxPriceAgeSeconds < 0 {
		return fmt.Errorf("config: MaxPriceAgeSeconds must not be negative")
	}
	if c.MinConfidenceRatioBps < 0 {
		return fmt.Errorf("config: MinConfidenceRatioBps must not be negative")
	}
	if strings.TrimSpace(c.Treasury) != "" {
		if _, err := c.TreasuryAddress(); err != nil {
			return err
		}
	}
	return nil
}

// TreasuryAddress decodes the configured treasury into its address form.
func (c *Config) TreasuryAddress() ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(c.Treasury), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("config: invalid Treasury address: %w", err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("config: Treasury address must be %d bytes, got %d", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:               "./predifi-data",
		MetricsAddress:        ":9090",
		NetworkName:           "predifi-local",
		FeeBps:                100,
		MaxPriceAgeSeconds:    300,
		MinConfidenceRatioBps: 200,
		Tokens:                []string{"USDC"},
		LogMaxSizeMB:          100,
		LogMaxBackups:         5,
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

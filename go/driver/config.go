// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/hosted-evm/go/host"
	"github.com/holiman/uint256"
)

// Config is the configuration of a standalone host.
type Config struct {
	DataDir            string `toml:"DataDir"`
	AccountID          string `toml:"AccountID"`
	Owner              string `toml:"Owner"`
	ChainID            uint64 `toml:"ChainID"`
	BridgeProver       string `toml:"BridgeProver"`
	UpgradeDelayBlocks uint64 `toml:"UpgradeDelayBlocks"`
	Benchmarking       bool   `toml:"Benchmarking"`
	LogFile            string `toml:"LogFile"`
	LogFormat          string `toml:"LogFormat"`
	LogLevel           string `toml:"LogLevel"`
	MetricsAddr        string `toml:"MetricsAddr"`
}

func DefaultConfig() Config {
	return Config{
		DataDir:            "evmhost-data",
		AccountID:          "evm.local",
		Owner:              "owner.local",
		ChainID:            1313161556,
		BridgeProver:       "prover.local",
		UpgradeDelayBlocks: 1,
		LogFormat:          "terminal",
		LogLevel:           "info",
	}
}

// LoadConfig reads the configuration at path. A missing file is created
// with the default configuration.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		return cfg, SaveConfig(path, cfg)
	}
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

func SaveConfig(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) Validate() error {
	for _, account := range []string{c.AccountID, c.Owner, c.BridgeProver} {
		if err := host.AccountID(account).Validate(); err != nil {
			return err
		}
	}
	if c.DataDir == "" {
		return errors.New("DataDir must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "terminal", "json", "logfmt":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ChainIDWord returns the chain id as a 32 byte big-endian word.
func (c *Config) ChainIDWord() [32]byte {
	return uint256.NewInt(c.ChainID).Bytes32()
}

func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "state")
}

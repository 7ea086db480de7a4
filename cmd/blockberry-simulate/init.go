package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blockberries/blockberry/config"
)

var (
	initChainID  string
	initDataDir  string
	initOverride bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a config file and node key",
	Long: `Initialize a data directory for blockberry-simulate.

This command creates:
  - config.toml: Simulator configuration
  - node_key.json: Node signing key
  - data/: Block and state storage directories

Example:
  blockberry-simulate init --chain-id demo-1`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initChainID, "chain-id", "blockberry-simulate-demo", "chain ID recorded in config.toml")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", ".", "directory for configuration and data")
	initCmd.Flags().BoolVar(&initOverride, "force", false, "override existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir := initDataDir
	if dataDir == "" {
		dataDir = "."
	}

	configPath := filepath.Join(dataDir, "config.toml")
	if _, err := os.Stat(configPath); err == nil && !initOverride {
		return fmt.Errorf("config.toml already exists; use --force to override")
	}

	cfg := config.DefaultConfig()
	cfg.Node.ChainID = initChainID
	cfg.Node.PrivateKeyPath = filepath.Join(dataDir, "node_key.json")
	cfg.BlockStore.Backend = "leveldb"
	cfg.BlockStore.Path = filepath.Join(dataDir, "data", "blockstore")
	cfg.StateStore.Path = filepath.Join(dataDir, "data", "state")

	if err := cfg.EnsureDataDirs(); err != nil {
		return fmt.Errorf("creating data directories: %w", err)
	}

	keyPath := cfg.Node.PrivateKeyPath
	if _, err := os.Stat(keyPath); os.IsNotExist(err) || initOverride {
		if err := generateNodeKey(keyPath); err != nil {
			return fmt.Errorf("generating node key: %w", err)
		}
		fmt.Printf("Generated node key: %s\n", keyPath)
	}

	if err := config.WriteConfigFile(configPath, cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Initialized blockberry-simulate data directory\n")
	fmt.Printf("  Chain ID: %s\n", initChainID)
	fmt.Printf("  Config:   %s\n", configPath)
	fmt.Printf("  Data dir: %s\n", filepath.Join(dataDir, "data"))

	return nil
}

func generateNodeKey(path string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	content := fmt.Sprintf(`{
  "priv_key": "%s",
  "pub_key": "%s"
}
`, hex.EncodeToString(priv), hex.EncodeToString(pub))

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

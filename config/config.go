// Package config loads and validates blockberry-simulate's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the configuration for the blockberry-simulate demo process: the
// sections needed to construct the Simulator and its five collaborators.
// Sections belonging to the wider platform (networking, peer exchange,
// mempool gossip, consensus handlers) are out of this module's scope and are
// not carried here.
type Config struct {
	Node       NodeConfig       `toml:"node"`
	BlockStore BlockStoreConfig `toml:"blockstore"`
	StateStore StateStoreConfig `toml:"statestore"`
	Simulator  SimulatorConfig  `toml:"simulator"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Logging    LoggingConfig    `toml:"logging"`
}

// NodeConfig contains chain identity and signing-key configuration.
type NodeConfig struct {
	// ChainID is the unique identifier for the blockchain network.
	ChainID string `toml:"chain_id"`

	// PrivateKeyPath is the path to the node's Ed25519 private key file.
	// If empty, the demo CLI generates an ephemeral key at startup.
	PrivateKeyPath string `toml:"private_key_path"`
}

// BlockStoreConfig contains block storage configuration.
type BlockStoreConfig struct {
	// Backend is the storage backend to use ("leveldb" or "memory").
	Backend string `toml:"backend"`

	// Path is the directory path for block storage. Unused for "memory".
	Path string `toml:"path"`
}

// StateStoreConfig contains state storage configuration.
type StateStoreConfig struct {
	// Path is the directory path for persistent state storage. Empty means
	// an in-memory IAVL tree (development/testing).
	Path string `toml:"path"`

	// CacheSize is the IAVL node cache size.
	CacheSize int `toml:"cache_size"`
}

// SimulatorConfig contains Simulator core tuning.
type SimulatorConfig struct {
	// ProposalBufferSize is the capacity of the channel the Simulator drains
	// incoming proposals from.
	ProposalBufferSize int `toml:"proposal_buffer_size"`

	// StreamBufferSize is the per-subscriber buffer capacity for
	// VerifiedProposalStream and CandidateBlockStream.
	StreamBufferSize int `toml:"stream_buffer_size"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled determines whether metrics collection is active.
	Enabled bool `toml:"enabled"`

	// Namespace is the Prometheus metrics namespace prefix.
	Namespace string `toml:"namespace"`

	// ListenAddr is the address to serve /metrics on (e.g., ":9090").
	ListenAddr string `toml:"listen_addr"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `toml:"level"`

	// Format is the log output format ("text" or "json").
	Format string `toml:"format"`

	// Output is the log output destination ("stdout" or "stderr"). The demo
	// CLI sends every value other than "stdout" to stderr; a file path is
	// not opened.
	Output string `toml:"output"`
}

// Duration is a wrapper around time.Duration for TOML unmarshaling.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ChainID:        "blockberry-testnet-1",
			PrivateKeyPath: "",
		},
		BlockStore: BlockStoreConfig{
			Backend: "memory",
			Path:    "data/blockstore",
		},
		StateStore: StateStoreConfig{
			Path:      "",
			CacheSize: 10000,
		},
		Simulator: SimulatorConfig{
			ProposalBufferSize: 64,
			StreamBufferSize:   64,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Namespace:  "blockberry_simulator",
			ListenAddr: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadConfig loads configuration from a TOML file.
// Missing values are filled with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validation errors.
var (
	ErrEmptyChainID             = errors.New("chain_id cannot be empty")
	ErrInvalidBlockStoreBackend = errors.New("blockstore backend must be 'leveldb' or 'memory'")
	ErrEmptyBlockStorePath      = errors.New("blockstore path cannot be empty for the leveldb backend")
	ErrInvalidStateCacheSize    = errors.New("statestore cache_size must be non-negative")
	ErrInvalidProposalBuffer    = errors.New("simulator proposal_buffer_size must be positive")
	ErrInvalidStreamBuffer      = errors.New("simulator stream_buffer_size must be positive")
	ErrEmptyMetricsNamespace    = errors.New("metrics namespace cannot be empty when enabled")
	ErrEmptyMetricsListenAddr   = errors.New("metrics listen_addr cannot be empty when enabled")
	ErrInvalidLogLevel          = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("log format must be 'text' or 'json'")
	ErrEmptyLogOutput           = errors.New("log output cannot be empty")
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node config: %w", err)
	}
	if err := c.BlockStore.Validate(); err != nil {
		return fmt.Errorf("blockstore config: %w", err)
	}
	if err := c.StateStore.Validate(); err != nil {
		return fmt.Errorf("statestore config: %w", err)
	}
	if err := c.Simulator.Validate(); err != nil {
		return fmt.Errorf("simulator config: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate checks the node configuration for errors.
func (c *NodeConfig) Validate() error {
	if c.ChainID == "" {
		return ErrEmptyChainID
	}
	return nil
}

// Validate checks the block store configuration for errors.
func (c *BlockStoreConfig) Validate() error {
	if c.Backend != "leveldb" && c.Backend != "memory" {
		return ErrInvalidBlockStoreBackend
	}
	if c.Backend == "leveldb" && c.Path == "" {
		return ErrEmptyBlockStorePath
	}
	return nil
}

// Validate checks the state store configuration for errors.
func (c *StateStoreConfig) Validate() error {
	if c.CacheSize < 0 {
		return ErrInvalidStateCacheSize
	}
	return nil
}

// Validate checks the simulator configuration for errors. A negative or
// zero buffer size is a programmer error per the Simulator's fail-fast
// construction contract, not a recoverable condition.
func (c *SimulatorConfig) Validate() error {
	if c.ProposalBufferSize <= 0 {
		return ErrInvalidProposalBuffer
	}
	if c.StreamBufferSize <= 0 {
		return ErrInvalidStreamBuffer
	}
	return nil
}

// Validate checks the metrics configuration for errors.
func (c *MetricsConfig) Validate() error {
	if c.Enabled {
		if c.Namespace == "" {
			return ErrEmptyMetricsNamespace
		}
		if c.ListenAddr == "" {
			return ErrEmptyMetricsListenAddr
		}
	}
	return nil
}

// Validate checks the logging configuration for errors.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return ErrInvalidLogLevel
	}

	switch c.Format {
	case "text", "json":
		// Valid formats
	default:
		return ErrInvalidLogFormat
	}

	if c.Output == "" {
		return ErrEmptyLogOutput
	}

	return nil
}

// WriteConfigFile writes the configuration to a TOML file.
func WriteConfigFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}

// EnsureDataDirs creates the data directories specified in the configuration.
func (c *Config) EnsureDataDirs() error {
	dirs := []string{}
	if c.Node.PrivateKeyPath != "" {
		dirs = append(dirs, filepath.Dir(c.Node.PrivateKeyPath))
	}
	if c.BlockStore.Backend == "leveldb" {
		dirs = append(dirs, c.BlockStore.Path)
	}
	if c.StateStore.Path != "" {
		dirs = append(dirs, c.StateStore.Path)
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)

	require.Equal(t, "blockberry-testnet-1", cfg.Node.ChainID)
	require.Empty(t, cfg.Node.PrivateKeyPath)

	require.Equal(t, "memory", cfg.BlockStore.Backend)
	require.Equal(t, "data/blockstore", cfg.BlockStore.Path)

	require.Empty(t, cfg.StateStore.Path)
	require.Equal(t, 10000, cfg.StateStore.CacheSize)

	require.Equal(t, 64, cfg.Simulator.ProposalBufferSize)
	require.Equal(t, 64, cfg.Simulator.StreamBufferSize)

	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, "blockberry_simulator", cfg.Metrics.Namespace)
	require.Equal(t, ":9090", cfg.Metrics.ListenAddr)

	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, "stderr", cfg.Logging.Output)
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[node]
chain_id = "my-test-chain"
private_key_path = "keys/node.json"

[blockstore]
backend = "leveldb"
path = "data/blocks"

[statestore]
path = "data/state"
cache_size = 50000

[simulator]
proposal_buffer_size = 128
stream_buffer_size = 256

[metrics]
enabled = true
namespace = "custom_ns"
listen_addr = ":9999"

[logging]
level = "debug"
format = "json"
output = "stdout"
`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	require.Equal(t, "my-test-chain", cfg.Node.ChainID)
	require.Equal(t, "keys/node.json", cfg.Node.PrivateKeyPath)

	require.Equal(t, "leveldb", cfg.BlockStore.Backend)
	require.Equal(t, "data/blocks", cfg.BlockStore.Path)

	require.Equal(t, "data/state", cfg.StateStore.Path)
	require.Equal(t, 50000, cfg.StateStore.CacheSize)

	require.Equal(t, 128, cfg.Simulator.ProposalBufferSize)
	require.Equal(t, 256, cfg.Simulator.StreamBufferSize)

	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "custom_ns", cfg.Metrics.Namespace)
	require.Equal(t, ":9999", cfg.Metrics.ListenAddr)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, "stdout", cfg.Logging.Output)
}

func TestLoadConfigPartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[node]
chain_id = "partial-chain"
`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	require.Equal(t, "partial-chain", cfg.Node.ChainID)

	// Defaults still apply where the file was silent.
	require.Equal(t, "memory", cfg.BlockStore.Backend)
	require.Equal(t, 64, cfg.Simulator.ProposalBufferSize)
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.toml")
	require.Error(t, err)
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	require.NoError(t, os.WriteFile(configPath, []byte("invalid toml {{{{"), 0644))

	_, err := LoadConfig(configPath)
	require.Error(t, err)
}

func TestLoadConfigValidationError(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[node]
chain_id = ""
`

	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmptyChainID)
}

func TestNodeConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NodeConfig
		wantErr error
	}{
		{
			name:    "valid config",
			cfg:     NodeConfig{ChainID: "test-chain", PrivateKeyPath: "node.key"},
			wantErr: nil,
		},
		{
			name:    "empty chain_id",
			cfg:     NodeConfig{ChainID: "", PrivateKeyPath: "node.key"},
			wantErr: ErrEmptyChainID,
		},
		{
			name:    "empty private_key_path is allowed (ephemeral key)",
			cfg:     NodeConfig{ChainID: "test-chain", PrivateKeyPath: ""},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBlockStoreConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BlockStoreConfig
		wantErr error
	}{
		{name: "memory backend", cfg: BlockStoreConfig{Backend: "memory"}, wantErr: nil},
		{name: "leveldb backend with path", cfg: BlockStoreConfig{Backend: "leveldb", Path: "data"}, wantErr: nil},
		{name: "leveldb backend without path", cfg: BlockStoreConfig{Backend: "leveldb"}, wantErr: ErrEmptyBlockStorePath},
		{name: "unknown backend", cfg: BlockStoreConfig{Backend: "badgerdb"}, wantErr: ErrInvalidBlockStoreBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestStateStoreConfigValidation(t *testing.T) {
	require.NoError(t, (&StateStoreConfig{CacheSize: 0}).Validate())
	require.ErrorIs(t, (&StateStoreConfig{CacheSize: -1}).Validate(), ErrInvalidStateCacheSize)
}

func TestSimulatorConfigValidation(t *testing.T) {
	require.NoError(t, (&SimulatorConfig{ProposalBufferSize: 1, StreamBufferSize: 1}).Validate())
	require.ErrorIs(t, (&SimulatorConfig{ProposalBufferSize: 0, StreamBufferSize: 1}).Validate(), ErrInvalidProposalBuffer)
	require.ErrorIs(t, (&SimulatorConfig{ProposalBufferSize: 1, StreamBufferSize: 0}).Validate(), ErrInvalidStreamBuffer)
}

func TestMetricsConfigValidation(t *testing.T) {
	require.NoError(t, (&MetricsConfig{Enabled: false}).Validate())
	require.ErrorIs(t, (&MetricsConfig{Enabled: true}).Validate(), ErrEmptyMetricsNamespace)
	require.ErrorIs(t, (&MetricsConfig{Enabled: true, Namespace: "ns"}).Validate(), ErrEmptyMetricsListenAddr)
	require.NoError(t, (&MetricsConfig{Enabled: true, Namespace: "ns", ListenAddr: ":9090"}).Validate())
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr error
	}{
		{name: "valid", cfg: LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, wantErr: nil},
		{name: "bad level", cfg: LoggingConfig{Level: "trace", Format: "text", Output: "stderr"}, wantErr: ErrInvalidLogLevel},
		{name: "bad format", cfg: LoggingConfig{Level: "info", Format: "xml", Output: "stderr"}, wantErr: ErrInvalidLogFormat},
		{name: "empty output", cfg: LoggingConfig{Level: "info", Format: "text", Output: ""}, wantErr: ErrEmptyLogOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDurationTextMarshaling(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("5s")))
	require.Equal(t, 5*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "5s", string(text))
}

func TestWriteAndLoadConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg := DefaultConfig()
	cfg.Node.ChainID = "roundtrip-chain"

	require.NoError(t, WriteConfigFile(configPath, cfg))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.Equal(t, "roundtrip-chain", loaded.Node.ChainID)
}

func TestEnsureDataDirs(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.BlockStore.Backend = "leveldb"
	cfg.BlockStore.Path = filepath.Join(tmpDir, "blocks")
	cfg.StateStore.Path = filepath.Join(tmpDir, "state")

	require.NoError(t, cfg.EnsureDataDirs())

	info, err := os.Stat(cfg.BlockStore.Path)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	info, err = os.Stat(cfg.StateStore.Path)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

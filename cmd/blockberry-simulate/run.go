package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockberries/blockberry/blockstore"
	"github.com/blockberries/blockberry/config"
	"github.com/blockberries/blockberry/crypto"
	"github.com/blockberries/blockberry/logging"
	"github.com/blockberries/blockberry/metrics"
	"github.com/blockberries/blockberry/ordering"
	"github.com/blockberries/blockberry/simulator"
	"github.com/blockberries/blockberry/statestore"
	"github.com/blockberries/blockberry/types"
	"github.com/blockberries/blockberry/validation"
)

var (
	runProposalsDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the Simulator against a directory of JSON-encoded proposals",
	Long: `run wires all five collaborators from the config file, starts the
Simulator, and feeds it every proposal file in --proposals (in filename
order), printing each verified proposal and candidate block as they are
emitted. Ctrl-C shuts the Simulator down cleanly.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runProposalsDir, "proposals", "", "directory of *.json proposal files to feed the Simulator, one at a time")
}

// proposalFile is the on-disk JSON shape for a proposal, decoded into
// types.Proposal. Command.Payload round-trips through encoding/json's
// default []byte-as-base64 behavior.
type proposalFile struct {
	Height       types.Height          `json:"height"`
	CreatedTime  uint64                `json:"created_time"`
	Transactions types.TransactionList `json:"transactions"`
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(cfg.Logging)

	blockStore, err := buildBlockStore(cfg.BlockStore)
	if err != nil {
		return fmt.Errorf("opening block store: %w", err)
	}
	defer blockStore.Close()

	stateStore, err := buildStateStore(cfg.StateStore)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer stateStore.Close()

	signer, err := loadSigner(cfg.Node.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	viewFactory := statestore.NewIAVLTemporaryViewFactory(stateStore)
	validator := validation.NewSimpleStatefulValidator()
	blockQuery := blockstore.NewBlockQuery(blockStore)
	source := ordering.NewChannelSource(cfg.Simulator.ProposalBufferSize)

	opts := []simulator.Option{
		simulator.WithLogger(logger.WithComponent("simulator")),
		simulator.WithProposalBufferSize(cfg.Simulator.ProposalBufferSize),
		simulator.WithStreamBufferSize(cfg.Simulator.StreamBufferSize),
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace)
		opts = append(opts, simulator.WithMetrics(m))

		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Error(err))
			}
		}()
	}

	sim := simulator.New(viewFactory, blockQuery, validator, signer, source, opts...)

	verified, unsubVerified := sim.OnVerifiedProposal().Subscribe()
	blocks, unsubBlock := sim.OnBlock().Subscribe()
	defer unsubVerified()
	defer unsubBlock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sim.Start(ctx); err != nil {
		return fmt.Errorf("starting simulator: %w", err)
	}

	go persistAndPrintEmissions(verified, blocks, blockStore, logger.WithComponent("run"))

	if runProposalsDir != "" {
		if err := publishProposals(runProposalsDir, source); err != nil {
			logger.Error("publishing proposals failed", logging.Error(err))
		}
	}

	<-ctx.Done()
	fmt.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sim.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down simulator: %w", err)
	}

	if metricsServer != nil {
		_ = metricsServer.Close()
	}

	if compactor, ok := blockStore.(interface{ Compact() error }); ok {
		if err := compactor.Compact(); err != nil {
			logger.Error("compacting block store", logging.Error(err))
		}
	}

	return nil
}

// persistAndPrintEmissions prints every verified proposal and candidate
// block as it is emitted, and saves each block into store so that its
// height becomes the tip the Simulator's continuity check requires for the
// next proposal. Without this, BlockQuery.TopBlocks would never see
// anything past the genesis command's height-1 block.
func persistAndPrintEmissions(verified <-chan types.Proposal, blocks <-chan types.Block, store blockstore.BlockStore, logger *logging.Logger) {
	for {
		select {
		case p, ok := <-verified:
			if !ok {
				return
			}
			fmt.Printf("verified proposal: height=%d transactions=%d\n", p.Height, len(p.Transactions))
		case b, ok := <-blocks:
			if !ok {
				return
			}
			hash, err := b.Hash()
			if err != nil {
				fmt.Printf("block: height=%d (hash error: %v)\n", b.Height, err)
				continue
			}
			fmt.Printf("block: height=%d hash=%s prev=%s transactions=%d signatures=%d\n",
				b.Height, hash.String(), b.PreviousHash.String(), len(b.Transactions), len(b.Signatures))

			data, err := types.MarshalBlock(b)
			if err != nil {
				logger.Error("encoding block for storage", logging.Height(int64(b.Height)), logging.Error(err))
				continue
			}
			if err := store.SaveBlock(int64(b.Height), hash, data); err != nil {
				logger.Error("saving block", logging.Height(int64(b.Height)), logging.Error(err))
			}
		}
	}
}

// publishProposals reads every *.json file under dir in filename order and
// publishes each as a proposal, blocking between publishes only as long as
// the source's subscriber buffer requires.
func publishProposals(dir string, source *ordering.ChannelSource) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading proposals directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}

		var pf proposalFile
		if err := json.Unmarshal(data, &pf); err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}

		p := types.Proposal{Height: pf.Height, CreatedTime: pf.CreatedTime, Transactions: pf.Transactions}
		if err := source.Publish(p); err != nil {
			return fmt.Errorf("publishing %s: %w", name, err)
		}
	}

	return nil
}

func buildLogger(cfg config.LoggingConfig) *logging.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	w := os.Stderr
	if cfg.Output == "stdout" {
		w = os.Stdout
	}

	if cfg.Format == "json" {
		return logging.NewJSONLogger(w, level)
	}
	return logging.NewTextLogger(w, level)
}

func buildBlockStore(cfg config.BlockStoreConfig) (blockstore.BlockStore, error) {
	switch cfg.Backend {
	case "leveldb":
		return blockstore.NewLevelDBBlockStore(cfg.Path)
	default:
		return blockstore.NewMemoryBlockStore(), nil
	}
}

func buildStateStore(cfg config.StateStoreConfig) (*statestore.IAVLStore, error) {
	if cfg.Path == "" {
		return statestore.NewMemoryIAVLStore(cfg.CacheSize)
	}
	return statestore.NewIAVLStore(cfg.Path, cfg.CacheSize)
}

func loadSigner(path string) (*crypto.Ed25519Signer, error) {
	if path == "" {
		s, err := crypto.GenerateEd25519Signer()
		if err != nil {
			return nil, fmt.Errorf("generating ephemeral signing key: %w", err)
		}
		return s, nil
	}

	priv, err := readNodeKey(path)
	if err != nil {
		return nil, err
	}
	return crypto.NewEd25519Signer(priv)
}

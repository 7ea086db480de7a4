package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blockberries/blockberry/blockstore"
	"github.com/blockberries/blockberry/config"
	"github.com/blockberries/blockberry/crypto"
	"github.com/blockberries/blockberry/statestore"
	"github.com/blockberries/blockberry/types"
)

var genesisAccountsFile string

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Seed initial account balances and write the height-1 genesis block",
	Long: `genesis reads a JSON file mapping account names to starting
balances and commits them to the configured state store before the
Simulator ever runs. The Simulator itself never writes to the state
store — every proposal is applied to a throwaway overlay view — so
bootstrapping balances is a separate, explicit administrative step.

genesis also signs and writes an empty height-1 block, whose
PreviousHash is the SHA-3/256 hash of empty input, into the configured
block store. The Simulator
never special-cases a missing chain: continuityOK requires a tip block
to already exist before it will accept a proposal at height 2, so a
freshly initialized deployment has no way to produce its first
candidate block without this bootstrapped tip.`,
	RunE: runGenesis,
}

func init() {
	genesisCmd.Flags().StringVar(&genesisAccountsFile, "accounts", "", "path to a JSON object of {\"account\": balance} entries")
	genesisCmd.MarkFlagRequired("accounts")
}

func runGenesis(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	balances, err := readGenesisAccounts(genesisAccountsFile)
	if err != nil {
		return fmt.Errorf("reading accounts file: %w", err)
	}

	store, err := buildStateStore(cfg.StateStore)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer store.Close()

	for account, amount := range balances {
		if err := statestore.SeedBalance(store, account, amount); err != nil {
			return fmt.Errorf("seeding %s: %w", account, err)
		}
	}

	hash, version, err := store.Commit()
	if err != nil {
		return fmt.Errorf("committing genesis balances: %w", err)
	}

	fmt.Printf("Seeded %d account(s)\n", len(balances))
	fmt.Printf("  Version:   %d\n", version)
	fmt.Printf("  Root hash: %x\n", hash)

	blockStore, err := buildBlockStore(cfg.BlockStore)
	if err != nil {
		return fmt.Errorf("opening block store: %w", err)
	}
	defer blockStore.Close()

	if blockStore.HasBlock(1) {
		fmt.Println("Genesis block already present at height 1, leaving it in place")
		return nil
	}

	signer, err := loadSigner(cfg.Node.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("loading signing key: %w", err)
	}

	block, err := writeGenesisBlock(blockStore, signer)
	if err != nil {
		return fmt.Errorf("writing genesis block: %w", err)
	}

	blockHash, err := block.Hash()
	if err != nil {
		return fmt.Errorf("hashing genesis block: %w", err)
	}
	fmt.Printf("Wrote genesis block\n")
	fmt.Printf("  Height: %d\n", block.Height)
	fmt.Printf("  Hash:   %s\n", blockHash.String())

	if counter, ok := blockStore.(interface{ BlockCount() int }); ok {
		fmt.Printf("  Blocks in store: %d\n", counter.BlockCount())
	}
	return nil
}

// writeGenesisBlock signs and persists the chain's height-1 block: no
// transactions, PreviousHash of the empty hash. It gives blockQuery.TopBlocks
// a tip to return before any proposal has ever been processed.
func writeGenesisBlock(store blockstore.BlockStore, signer *crypto.Ed25519Signer) (types.Block, error) {
	unsigned, err := types.NewUnsignedBlock(1, uint64(time.Now().UnixMilli()), types.EmptyHash(), nil)
	if err != nil {
		return types.Block{}, fmt.Errorf("building unsigned block: %w", err)
	}

	block, err := signer.Sign(unsigned)
	if err != nil {
		return types.Block{}, fmt.Errorf("signing block: %w", err)
	}

	hash, err := block.Hash()
	if err != nil {
		return types.Block{}, fmt.Errorf("hashing block: %w", err)
	}

	data, err := types.MarshalBlock(block)
	if err != nil {
		return types.Block{}, fmt.Errorf("encoding block: %w", err)
	}

	if err := store.SaveBlock(int64(block.Height), hash, data); err != nil {
		return types.Block{}, fmt.Errorf("saving block: %w", err)
	}
	return block, nil
}

func readGenesisAccounts(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var balances map[string]int64
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return balances, nil
}

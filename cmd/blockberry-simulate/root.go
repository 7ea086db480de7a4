package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time).
	Version   = "dev"
	GitCommit = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "blockberry-simulate",
	Short: "Standalone runner for the blockberry Simulator",
	Long: `blockberry-simulate drives the Simulator component in isolation:
it feeds synthetic proposals through continuity checking, stateful
validation, and signing, and prints what comes out on the verified-
proposal and candidate-block streams.

It is a demonstration harness, not the full node — networking,
consensus voting, and peer sync live in the wider platform.`,
	Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "config file path")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(genesisCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

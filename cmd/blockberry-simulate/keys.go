package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect the node signing key",
}

var keysShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print the public key from a node key file",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysShow,
}

func init() {
	keysCmd.AddCommand(keysShowCmd)
}

// nodeKeyFile is the on-disk shape written by init.go's generateNodeKey:
// hex-encoded ed25519 key material.
type nodeKeyFile struct {
	PrivKey string `json:"priv_key"`
	PubKey  string `json:"pub_key"`
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	priv, err := readNodeKey(args[0])
	if err != nil {
		return err
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return fmt.Errorf("keys: unexpected public key type")
	}
	fmt.Println(hex.EncodeToString(pub))
	return nil
}

// readNodeKey loads and decodes a node key file written by init.go.
func readNodeKey(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	var kf nodeKeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}

	priv, err := hex.DecodeString(kf.PrivKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key file: private key has wrong size: got %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}

	return ed25519.PrivateKey(priv), nil
}

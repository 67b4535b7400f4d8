package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/spf13/cobra"
	"github.com/starnotary/notary/signature"
)

var (
	keyHex        string
	signMessage   string
	keyTestnet    bool
	keyNoCompress bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a secp256k1 key and its wallet address",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\naddress: %s\n",
			hex.EncodeToString(key.Serialize()), walletAddress(key))
		return nil
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a validation challenge message with a wallet key",
	Long: `Produce the base64 signature expected by /message-signature/validate.
Examples:
  sign --key <hex private key> --message "<address>:<timestamp>:starRegistry"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := hex.DecodeString(keyHex)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("--key must be a 32 byte hex private key")
		}
		if signMessage == "" {
			return fmt.Errorf("--message is required")
		}

		key := secp256k1.PrivKeyFromBytes(raw)
		fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nsignature: %s\n",
			walletAddress(key), signature.Sign(key, signMessage, !keyNoCompress))
		return nil
	},
}

func walletAddress(key *secp256k1.PrivateKey) string {
	version := signature.MainNetPubKeyHash
	if keyTestnet {
		version = signature.TestNetPubKeyHash
	}
	return signature.AddressFromPubKey(key.PubKey(), !keyNoCompress, version)
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(signCmd)

	for _, c := range []*cobra.Command{keygenCmd, signCmd} {
		c.Flags().BoolVar(&keyTestnet, "testnet", false, "Use the testnet address version")
		c.Flags().BoolVar(&keyNoCompress, "uncompressed", false, "Use the uncompressed public key form")
	}
	signCmd.Flags().StringVarP(&keyHex, "key", "k", "", "Hex encoded private key")
	signCmd.Flags().StringVarP(&signMessage, "message", "m", "", "Message to sign")
}

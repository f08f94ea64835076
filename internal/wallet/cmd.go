package wallet

import (
	"github.com/spf13/cobra"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/output"
)

var CMD = &cobra.Command{
	Use:   "accounts",
	Short: "Print the signing accounts of the selected network",
	Args:  cobra.NoArgs,
	RunE:  runAccounts,
}

var flagCount uint32

func init() {
	CMD.Flags().Uint32Var(&flagCount, "count", 1, "Number of accounts to derive when the network uses a mnemonic")
}

// Account is a signing address and, for mnemonic accounts, its derivation path.
type Account struct {
	Address string  `json:"address"`
	Path    *string `json:"path,omitempty"`
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	profile, err := configs.Values.Profile(configs.Values.Network)
	if err != nil {
		return err
	}

	accounts, err := List(profile, flagCount)
	if err != nil {
		return err
	}

	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	return printer.Print(accounts)
}

// List returns the signer of profile, or count consecutive accounts starting at
// the configured derivation index when profile uses a mnemonic.
func List(profile configs.ChainProfile, count uint32) ([]Account, error) {
	if profile.PrivateKey != "" || count <= 1 {
		signer, err := FromProfile(profile)
		if err != nil {
			return nil, err
		}
		return []Account{{Address: signer.Address().Hex()}}, nil
	}

	accounts := make([]Account, 0, count)
	for i := range count {
		index := profile.DerivationIndex + i
		signer, err := FromMnemonic(profile.Mnemonic, index)
		if err != nil {
			return nil, err
		}
		path, err := DerivationPath(index)
		if err != nil {
			return nil, err
		}
		p := path.String()
		accounts = append(accounts, Account{Address: signer.Address().Hex(), Path: &p})
	}

	return accounts, nil
}

package storagekey

import (
	"github.com/spf13/cobra"

	"github.com/storyprotocol/sp-cli/internal/output"
)

var CMD = &cobra.Command{
	Use:   "eip7201-key <namespace>",
	Short: "Print the ERC-7201 storage location of a namespace, for example erc7201:example.main",
	Args:  cobra.ExactArgs(1),
	RunE:  runKey,
}

type result struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

func runKey(cmd *cobra.Command, args []string) error {
	key, err := Derive(args[0])
	if err != nil {
		return err
	}

	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	return printer.Print(result{Namespace: args[0], Key: key.Hex()})
}

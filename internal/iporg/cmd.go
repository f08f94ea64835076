package iporg

import (
	"github.com/spf13/cobra"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/output"
	"github.com/storyprotocol/sp-cli/internal/session"
)

var CMD = &cobra.Command{
	Use:   "iporg",
	Short: "IP organisation commands",
}

var createCmd = &cobra.Command{
	Use:   "create <name> <symbol>",
	Short: "Create an IP organisation owned by the signer",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreate,
}

var (
	flagEvents       bool
	flagIPAssetTypes []string
)

func init() {
	createCmd.Flags().BoolVar(&flagEvents, "events", false, "Show every event in the transaction receipt")
	createCmd.Flags().StringSliceVar(&flagIPAssetTypes, "asset-types", nil, "IP asset type names registered with the organisation")

	CMD.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	sess, err := session.Open(cmd.Context(), configs.Values, Contracts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	result, err := NewService(sess.Executor, sess.Handles).Create(cmd.Context(), CreateRequest{
		Name:         args[0],
		Symbol:       args[1],
		IPAssetTypes: flagIPAssetTypes,
		Verbose:      flagEvents,
	})
	if err != nil {
		if result != nil {
			_ = printer.Print(result)
		}
		return err
	}

	return printer.Print(result)
}

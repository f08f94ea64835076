package ipasset

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storyprotocol/sp-cli/configs"
	"github.com/storyprotocol/sp-cli/internal/batch"
	"github.com/storyprotocol/sp-cli/internal/output"
	"github.com/storyprotocol/sp-cli/internal/session"
)

// ErrIncompleteBatch is returned when a bulk run ends with records that did not
// succeed.
var ErrIncompleteBatch = errors.New("batch incomplete")

var CMD = &cobra.Command{
	Use:   "ipasset",
	Short: "IP asset commands",
}

var createCmd = &cobra.Command{
	Use:   "create <ipOrg> <type> <name> <description> <mediaURL>",
	Short: "Register one IP asset owned by the signer",
	Long:  "Register one IP asset owned by the signer. type is STORY, CHARACTER, ART, GROUP, LOCATION or ITEM.",
	Args:  cobra.ExactArgs(5),
	RunE:  runCreate,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <ipOrg> <receiver> <filePath>",
	Short: "Register IP assets in bulk from a JSON or YAML file",
	Long: "Register IP assets in bulk from a JSON or YAML file. Progress is kept in a state file; " +
		"running the command again resumes where the previous run stopped.\n\n" +
		"A record whose transaction timed out is never sent twice: later runs and reconcile look the " +
		"transaction up by hash. If that transaction was dropped by the node and will never be mined, " +
		"run upload with --forget-pending to send those records again.",
	Args: cobra.ExactArgs(3),
	RunE: runUpload,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <ipOrg> <filePath>",
	Short: "Settle timed out records of a bulk run by transaction hash without sending anything",
	Args:  cobra.ExactArgs(2),
	RunE:  runReconcile,
}

func init() {
	createCmd.Flags().BoolVar(&flagEvents, "events", false, "Show every event in the transaction receipt")

	uploadCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "Records per chunk between state checkpoints (default from batch.size)")
	uploadCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Records in flight within a chunk (default from batch.concurrency)")
	uploadCmd.Flags().StringVar(&flagState, "state", "", "State file (default <filePath>.state.json)")
	uploadCmd.Flags().BoolVar(&flagEvents, "events", false, "Keep every event of each receipt in the state file")
	uploadCmd.Flags().BoolVar(&flagForget, "forget-pending", false, "Send again records whose earlier transaction was never seen mined")

	reconcileCmd.Flags().StringVar(&flagState, "state", "", "State file (default <filePath>.state.json)")

	CMD.AddCommand(createCmd)
	CMD.AddCommand(uploadCmd)
	CMD.AddCommand(reconcileCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ipOrg, err := parseAddress("ipOrg", args[0])
	if err != nil {
		return err
	}
	entry := Entry{
		Type:        args[1],
		Name:        args[2],
		Description: args[3],
		MediaURL:    args[4],
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	sess, err := session.Open(cmd.Context(), configs.Values, Contracts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	service := NewService(sess.Executor, sess.Handles)
	result, err := service.Register(cmd.Context(), ipOrg, service.Sender(), entry, flagEvents)
	if err != nil {
		if result != nil {
			_ = printer.Print(result)
		}
		return err
	}

	return printer.Print(result)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ipOrg, err := parseAddress("ipOrg", args[0])
	if err != nil {
		return err
	}
	receiver, err := parseAddress("receiver", args[1])
	if err != nil {
		return err
	}

	req := UploadRequest{
		IPOrg:         ipOrg,
		Receiver:      receiver,
		FilePath:      args[2],
		StatePath:     flagState,
		BatchSize:     orDefault(flagBatchSize, configs.Values.Batch.Size),
		Concurrency:   orDefault(flagConcurrency, configs.Values.Batch.Concurrency),
		Verbose:       flagEvents,
		ForgetPending: flagForget,
	}

	// reject a broken input file before connecting anywhere
	if _, err := LoadEntries(req.FilePath); err != nil {
		return err
	}

	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	sess, err := session.Open(cmd.Context(), configs.Values, Contracts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	uploader := NewUploader(NewService(sess.Executor, sess.Handles), sess.Profile.Name, sess.Profile.ChainID)
	report, err := uploader.Upload(cmd.Context(), req)
	if report != nil {
		if printErr := printer.Print(report); printErr != nil {
			return errors.Join(err, printErr)
		}
	}

	return finish(report, err)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ipOrg, err := parseAddress("ipOrg", args[0])
	if err != nil {
		return err
	}

	printer, err := output.Stdout(cmd)
	if err != nil {
		return err
	}

	sess, err := session.Open(cmd.Context(), configs.Values, Contracts...)
	if err != nil {
		return err
	}
	defer sess.Close()

	uploader := NewUploader(NewService(sess.Executor, sess.Handles), sess.Profile.Name, sess.Profile.ChainID)
	report, err := uploader.Reconcile(cmd.Context(), ReconcileRequest{
		IPOrg:     ipOrg,
		FilePath:  args[1],
		StatePath: flagState,
	})
	if report != nil {
		if printErr := printer.Print(report); printErr != nil {
			return errors.Join(err, printErr)
		}
	}

	return finish(report, err)
}

func finish(report *batch.Report[Entry], err error) error {
	if err != nil {
		return err
	}
	if !report.Summary.Complete() {
		return fmt.Errorf("%w: %s", ErrIncompleteBatch, report.Summary)
	}
	return nil
}

func orDefault(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}

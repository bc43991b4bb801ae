package cmd

import (
	"fmt"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/config"
	"github.com/FranLegon/drive-cleanup/internal/deleter"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/spf13/cobra"
)

var (
	deleteYes   bool
	deleteTrash bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete every file of the stored scan",
	Long: `Deletes each file listed in the stored scan results, one call per file,
and writes the outcome of every file to delete_results.csv. Deletion is
permanent unless --trash is given. Files removed by an earlier run are not
attempted again.

When every file is gone the session is cleared. Otherwise the outcomes are
kept so that running 'delete' again retries only the remaining files.`,
	RunE: runDeleteCmd,
}

func init() {
	f := deleteCmd.Flags()
	f.BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
	f.BoolVar(&deleteTrash, "trash", false, "Move files to the trash instead of deleting them")
	f.Bool("verify", true, "Check that each file is gone after deleting it")

	_ = v.BindPFlag(config.KeyVerifyDeletes, f.Lookup("verify"))

	rootCmd.AddCommand(deleteCmd)
}

func runDeleteCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.Load(ctx)
	if err != nil {
		return err
	}

	pending := pendingRecords(result.Files)
	if len(pending) == 0 {
		logger.Info("Nothing to delete in the stored scan of %s", result.DriveName)
		return nil
	}

	if !safeMode && !deleteYes {
		label := fmt.Sprintf("Delete %d files from %s", len(pending), result.DriveName)
		if deleteTrash {
			label = fmt.Sprintf("Move %d files from %s to the trash", len(pending), result.DriveName)
		}
		if !confirm(label) {
			logger.Info("Operation cancelled.")
			return nil
		}
	}

	// safe mode makes no API calls, so it needs no credentials
	var client api.StorageClient
	if !safeMode {
		c, err := newDriveClient(ctx)
		if err != nil {
			return err
		}
		client = c
	}

	opts := deleter.Options{
		Verify:   settings.VerifyDeletes,
		Trash:    deleteTrash,
		SafeMode: safeMode,
	}
	outcomes, summary, err := runDelete(ctx, client, pending, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if safeMode {
		return nil
	}
	if err := saveDeleteOutcome(ctx, store, outcomes, summary); err != nil {
		return err
	}
	if summary.Failures() > 0 {
		return fmt.Errorf("%d of %d files could not be deleted", summary.Failures(), summary.Total)
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	scanDrive  string
	scanFolder string
	scanFilter filterInput
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a shared drive for duplicate and stale files",
	Long: `Walks every folder of a shared drive (or of --folder inside it) and
classifies each file. A file whose title was already seen earlier in the scan
is flagged duplicate_title; otherwise a file modified before --stale-before is
flagged stale. Folders without any children are listed as empty.

Results are previewed, written as CSV to the output directory, and kept in
the session for 'export' and 'delete'. A new scan replaces the previous one.`,
	RunE: runScanCmd,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanDrive, "drive", "", "Shared drive name or ID (prompted when omitted)")
	f.StringVar(&scanFolder, "folder", "", "Folder ID inside the drive to start from")
	f.StringVar(&scanFilter.Start, "start", "", "Earliest modified date to include (YYYY-MM-DD)")
	f.StringVar(&scanFilter.End, "end", "", "Latest modified date to include (YYYY-MM-DD)")
	f.StringVar(&scanFilter.Keywords, "keywords", "", "Comma separated title keywords (enables keyword mode)")
	f.StringVar(&scanFilter.StaleBefore, "stale-before", "", "Flag files last modified before this date (YYYY-MM-DD)")
	f.BoolVar(&scanFilter.FlaggedOnly, "flagged-only", false, "Keep only duplicate or stale files")

	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filter, err := scanFilter.build()
	if err != nil {
		return err
	}

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	drive, err := chooseDrive(ctx, client, scanDrive)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = runScan(ctx, client, store, drive, scanFolder, filter, cmd.OutOrStdout())
	return err
}

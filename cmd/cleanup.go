package cmd

import (
	"errors"
	"fmt"

	"github.com/FranLegon/drive-cleanup/internal/deleter"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/session"
	"github.com/FranLegon/drive-cleanup/internal/walker"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Interactively scan a shared drive and delete what was found",
	Long: `Guides through one complete session: pick a shared drive, a date range and
an optional keyword filter, review the scan, and confirm the delete. Results
live in memory only and are gone when the command exits; CSV exports are
still written to the output directory.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	drive, err := chooseDrive(ctx, client, "")
	if err != nil {
		return err
	}

	in, err := promptFilterInput()
	if err != nil {
		return err
	}
	filter, err := in.build()
	if err != nil {
		return err
	}

	store := session.NewMemoryStore()
	result, err := runScan(ctx, client, store, drive, "", filter, out)
	if err != nil {
		return err
	}
	if len(result.Files) == 0 {
		return nil
	}

	if !safeMode && !confirm(fmt.Sprintf("Delete all %d files listed above", len(result.Files))) {
		logger.Info("Nothing deleted. Scan results were exported.")
		return nil
	}

	opts := deleter.Options{Verify: settings.VerifyDeletes, SafeMode: safeMode}
	outcomes, summary, err := runDelete(ctx, client, result.Files, opts, out)
	if err != nil {
		return err
	}
	if safeMode {
		return nil
	}
	return saveDeleteOutcome(ctx, store, outcomes, summary)
}

func promptFilterInput() (filterInput, error) {
	var in filterInput

	validateDate := func(s string) error {
		_, err := walker.ParseDate(s)
		return err
	}

	start := promptui.Prompt{Label: "Start date (YYYY-MM-DD, empty for no limit)", Validate: validateDate}
	var err error
	if in.Start, err = start.Run(); err != nil {
		return in, err
	}

	end := promptui.Prompt{Label: "End date (YYYY-MM-DD, empty for no limit)", Validate: validateDate}
	if in.End, err = end.Run(); err != nil {
		return in, err
	}

	mode := promptui.Select{
		Label: "Select Mode",
		Items: []string{walker.ModeAll.String(), walker.ModeKeywords.String()},
	}
	idx, _, err := mode.Run()
	if err != nil {
		return in, err
	}

	if walker.Mode(idx) == walker.ModeKeywords {
		keywords := promptui.Prompt{
			Label: "Keywords (comma separated)",
			Validate: func(s string) error {
				if len(walker.ParseKeywords(s)) == 0 {
					return errors.New("enter at least one keyword")
				}
				return nil
			},
		}
		if in.Keywords, err = keywords.Run(); err != nil {
			return in, err
		}
	}

	stale := promptui.Prompt{Label: "Flag files modified before (YYYY-MM-DD, empty to skip)", Validate: validateDate}
	if in.StaleBefore, err = stale.Run(); err != nil {
		return in, err
	}

	flagged := promptui.Select{
		Label: "Files to list",
		Items: []string{"Every matching file", "Only duplicate or stale files"},
	}
	idx, _, err = flagged.Run()
	if err != nil {
		return in, err
	}
	in.FlaggedOnly = idx == 1

	return in, nil
}

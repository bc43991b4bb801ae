package cmd

import (
	"io"

	"github.com/FranLegon/drive-cleanup/internal/export"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored scan results as CSV again",
	Long: `Rewrites scan_results.csv, empty_folders.csv and the flagged-files export
from the scan kept in the session. When a delete already ran against the
session, delete_results.csv is written too.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	if err := writeScanExports(settings.OutputDir, result); err != nil {
		return err
	}

	if !hasDeleteResults(result.Files) {
		return nil
	}
	path, err := export.WriteFile(settings.OutputDir, export.DeleteResultsFile, func(w io.Writer) error {
		return export.WriteDeleteResults(w, result.Files)
	})
	if err != nil {
		return err
	}
	logger.InfoTagged([]string{"Export"}, "Wrote %s", path)
	return nil
}

func hasDeleteResults(files []model.FileRecord) bool {
	for _, f := range files {
		if f.DeleteStatus != model.DeleteStatusNone {
			return true
		}
	}
	return false
}

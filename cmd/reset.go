package cmd

import (
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the stored scan results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		logger.Info("Session cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

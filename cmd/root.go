package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/FranLegon/drive-cleanup/internal/config"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	safeMode   bool
	verbose    bool
	configFile string

	v        = viper.New()
	settings *config.Settings
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "drive-cleanup",
	Short: "Find and remove duplicate or stale files in a Google shared drive",
	Long: `drive-cleanup scans a shared drive folder tree, flags files whose title
was already seen earlier in the scan or whose last modification is older than
a cutoff, lists empty folders, and can bulk-delete the scanned files.

Scan results are kept in a local session file (session.db) until they are
deleted, replaced by a new scan, or cleared with 'reset'. The refresh token is
stored encrypted (config.json.enc) and protected by a master password.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetLevel(logger.LogLevelDebug)
		}

		s, err := config.LoadSettings(v, configFile)
		if err != nil {
			return err
		}
		settings = s
		return nil
	},
}

// Execute runs the root command. Ctrl+C cancels the running operation between API calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Settings file (default ./drive-cleanup.yaml)")
	flags.BoolVarP(&safeMode, "safe", "s", false, "Dry run mode (no deletes)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
	flags.StringP("output", "o", "", "Directory for CSV exports")

	_ = v.BindPFlag(config.KeyOutputDir, flags.Lookup("output"))
}

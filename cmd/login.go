package cmd

import (
	"time"

	"github.com/FranLegon/drive-cleanup/internal/auth"
	"github.com/FranLegon/drive-cleanup/internal/config"
	"github.com/FranLegon/drive-cleanup/internal/google"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to Google Drive",
	Long: `Runs the OAuth flow using the client secrets file, then stores the refresh
token encrypted with a master password. Run it again to switch accounts or
after the stored token stops working.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	oauthCfg, err := auth.LoadOAuthConfig(settings.CredentialsFile)
	if err != nil {
		return err
	}

	flow := &auth.Flow{Config: oauthCfg}
	refreshToken, err := flow.PerformOAuthFlow(ctx)
	if err != nil {
		return err
	}

	client, err := google.NewClient(ctx, auth.NewTokenSource(ctx, oauthCfg, refreshToken), driveOptions())
	if err != nil {
		return err
	}
	email, err := client.GetUserEmail(ctx)
	if err != nil {
		logger.Warning("Could not read account email: %v", err)
	}

	password, err := config.GetMasterPassword(true)
	if err != nil {
		return err
	}

	secrets := &config.Secrets{
		Account:      email,
		RefreshToken: refreshToken,
		SavedAt:      time.Now().UTC(),
	}
	if err := config.SaveSecrets(settings, password, secrets); err != nil {
		return err
	}

	logger.InfoTagged([]string{"Login"}, "Authorized %s, credentials saved to %s", email, settings.SecretsFile)
	return nil
}

package cmd

import (
	"github.com/FranLegon/drive-cleanup/internal/auth"
	"github.com/FranLegon/drive-cleanup/internal/config"
	"github.com/FranLegon/drive-cleanup/internal/logger"
	"github.com/spf13/cobra"
)

var checkTokenCmd = &cobra.Command{
	Use:   "check-token",
	Short: "Validate the stored authentication token",
	Long:  `Tests the stored refresh token to ensure it can still authenticate successfully.`,
	RunE:  runCheckToken,
}

func init() {
	rootCmd.AddCommand(checkTokenCmd)
}

func runCheckToken(cmd *cobra.Command, args []string) error {
	oauthCfg, err := auth.LoadOAuthConfig(settings.CredentialsFile)
	if err != nil {
		return err
	}

	password, err := config.GetMasterPassword(false)
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets(settings, password)
	if err != nil {
		return err
	}

	if err := auth.ValidateToken(cmd.Context(), oauthCfg, secrets.RefreshToken); err != nil {
		logger.ErrorTagged([]string{"Token"}, "Token for %s is invalid", secrets.Account)
		return authHint(err)
	}

	logger.InfoTagged([]string{"Token"}, "Token for %s is valid (saved %s)", secrets.Account, secrets.SavedAt.Format("2006-01-02"))
	return nil
}

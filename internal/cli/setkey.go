package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumen/internal/settings"
)

func newSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <gemini-api-key>",
		Short: "Store the Gemini API key",
		Long: `Set-key persists the Google Gemini API key in the settings file.
Once set, 'index --provider gemini' and cross-provider search can use
the remote embedding model. The GEMINI_API_KEY environment variable
takes precedence when both are present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return fmt.Errorf("API key must not be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			svc := settings.NewService(settings.NewFileRepo(cfg.SettingsPath))
			if err := svc.SetGeminiAPIKey(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("Gemini API key saved.")
			return nil
		},
	}
}

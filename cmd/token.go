package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/gym-management/pkg/logger"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue access tokens",
}

var platformSubject string

var platformTokenCmd = &cobra.Command{
	Use:   "platform",
	Short: "Issue a short-lived platform token",
	Long: `Issue a platform token for operators. It is not tied to a company;
send X-Company-ID with each request to pick the company to act in.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		// Platform tokens resolve without a session row.
		manager := newSessionManager(cfg, nil, logger.LoggerWrapper())
		issued, err := manager.IssuePlatformToken(platformSubject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}

		logger.LoggerWrapper().Info("platform token issued",
			"subject", platformSubject, "session_id", issued.SessionID, "expires_at", issued.ExpiresAt)
		fmt.Println(issued.Token)
	},
}

func init() {
	platformTokenCmd.Flags().StringVar(&platformSubject, "subject", "", "operator the token is issued to")
	_ = platformTokenCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(platformTokenCmd)
	rootCmd.AddCommand(tokenCmd)
}

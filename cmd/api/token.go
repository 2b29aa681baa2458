package main

import (
	"errors"
	"fmt"

	"github.com/SergeiKhy/sus/internal/auth"
	"github.com/SergeiKhy/sus/internal/config"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for API clients",
	Long: `Issues a signed session token for the given user id. Pass it as
"Authorization: Bearer <token>" to the /api/v1/links endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		accountID, _ := cmd.Flags().GetString("account")
		if userID == "" {
			return errors.New("--user is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		sessions := auth.NewSessionManager(cfg.Session, nil)
		token, expiresAt, err := sessions.Issue(models.Identity{
			UserID:            userID,
			ExternalAccountID: accountID,
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "user id (token subject)")
	tokenCmd.Flags().String("account", "", "external account id")
}

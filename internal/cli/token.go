package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-transcript-api/internal/models"
	"github.com/noah-isme/sma-transcript-api/internal/service"
	"github.com/noah-isme/sma-transcript-api/pkg/config"
)

func newTokenCmd() *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for operators and scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.UserRole(strings.ToUpper(role))
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, expiresAt, err := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiration).Issue(userID, r)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"token": token, "expires_at": expiresAt})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id carried in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "ADMIN, REGISTRAR, TEACHER or STUDENT")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

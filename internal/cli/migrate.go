package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/db"
	"github.com/noah-isme/sma-transcript-api/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := loadBase()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			ctx := commandContext(cmd)
			conn, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			logr.Info("migrations applied", zap.String("database", cfg.Database.Name))
			return nil
		},
	}
}

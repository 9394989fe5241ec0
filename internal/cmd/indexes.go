package cmd

import (
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/repository/mongo"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the MongoDB indexes and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return fmt.Errorf("connect to MongoDB: %w", err)
		}
		defer mongo.DisconnectDB(client)

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, client.Database(cfg.Database.Name)); err != nil {
			return err
		}
		logging.Logger.Info().Str("database", cfg.Database.Name).Msg("indexes ensured")
		return nil
	},
}

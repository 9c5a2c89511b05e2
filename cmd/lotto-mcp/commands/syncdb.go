package commands

import (
	"fmt"

	"lotto-mcp/internal/source/postgres"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var syncDBCmd = &cobra.Command{
	Use:   "sync-db",
	Short: "Copy newly published draws from the dhlottery endpoint into the postgres draws table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.PostgresURL == "" {
			return fmt.Errorf("sync-db requires POSTGRES_URL")
		}
		ctx, stop := signalContext(cmd)
		defer stop()

		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		target := postgres.New(db)

		latest, err := target.LatestRound(ctx)
		if err != nil {
			return err
		}
		records, err := newDHLottery(cfg).Fetch(ctx, latest)
		if err != nil && len(records) == 0 {
			return err
		}
		if err != nil {
			log.Warn().Err(err).Int("fetched", len(records)).Msg("Fetch stopped early, storing what was retrieved")
		}
		if err := target.Upsert(ctx, records); err != nil {
			return err
		}
		log.Info().Int("after", latest).Int("stored", len(records)).Msg("Postgres draws table synchronized")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncDBCmd)
}

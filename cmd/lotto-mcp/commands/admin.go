package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Serve health, metrics and rebuild endpoints and rebuild on the configured schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.provider.Rebuild(ctx); err != nil {
			log.Error().Err(err).Msg("Initial snapshot rebuild failed")
		}
		return runAdmin(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
}

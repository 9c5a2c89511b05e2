package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"lotto-mcp/internal/admin"
	"lotto-mcp/internal/config"
	"lotto-mcp/internal/logging"
	"lotto-mcp/internal/mcp"
	"lotto-mcp/internal/scheduler"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose   bool
	withAdmin bool
	cfg       *config.AppConfig
	logFile   io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "lotto-mcp",
	Short: "lotto-mcp is an MCP server for lotto draw history statistics",
	Long: `An MCP Server that answers descriptive questions about a 6-of-45 lotto draw history:
which numbers followed rounds resembling a target round, and what followed rounds
matching a user-defined condition. All figures are historical counts, not predictions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logFile, err = logging.Init(logging.Options{Verbose: verbose})
		if err != nil {
			return err
		}

		cfg, err = config.Load()
		if err != nil {
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("source", cfg.DrawSource).
			Msg("lotto-mcp starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// An empty snapshot is served rather than refusing to start; the
		// client can retry through 'rebuild_snapshot'.
		if _, err := a.provider.Rebuild(ctx); err != nil {
			log.Error().Err(err).Msg("Initial snapshot rebuild failed, starting with an empty history")
		}

		server := mcp.NewServer(a.store, a.provider, a.results, a.metrics, mcp.Options{
			Version:             Version,
			EnableMermaidCharts: cfg.EnableMermaidCharts,
			DefaultTopN:         cfg.DefaultTopN,
			ScanDetailLimit:     cfg.ScanDetailLimit,
		})

		if !withAdmin {
			return server.Start(ctx)
		}

		g, gctx := errgroup.WithContext(ctx)
		sctx, cancel := context.WithCancel(gctx)
		g.Go(func() error {
			// The stdio session ending stops the side services too.
			defer cancel()
			return server.Start(sctx)
		})
		g.Go(func() error { return runAdmin(sctx, a) })
		return g.Wait()
	},
}

// runAdmin serves the admin router and the rebuild schedule until ctx ends.
func runAdmin(ctx context.Context, a *app) error {
	sched, err := scheduler.New(cfg.RebuildSchedule, a.provider, cfg.RebuildTimeout)
	if err != nil {
		return err
	}
	router := admin.NewRouter(a.store, a.provider, a.metrics, cfg.AdminToken)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return admin.Serve(gctx, cfg.AdminAddr, router) })
	g.Go(func() error { return sched.Run(gctx) })
	return g.Wait()
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Flags().BoolVar(&withAdmin, "with-admin", false, "also serve the admin endpoint and run the rebuild schedule")
}

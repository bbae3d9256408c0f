// Command tenders browses procurement notices from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ted_dashboard/internal/adapters/observability"
	"ted_dashboard/internal/app"
	"ted_dashboard/internal/shared"
)

// env carries what every subcommand needs once the root has loaded config.
type env struct {
	cfg   shared.Config
	q     *app.QueryService
	close func()
}

func newRootCmd() *cobra.Command {
	e := &env{close: func() {}}
	var envFile string

	root := &cobra.Command{
		Use:           "tenders",
		Short:         "Browse public procurement notices",
		Long:          "tenders lists stored and live procurement notices, shows contract trends, and offers an interactive browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := shared.Load(files...)
			if err != nil {
				return err
			}
			log.Logger = observability.NewCLILogger(cfg.AppEnv, cfg.LogLevel)

			q, closeFn, err := shared.NewQueryService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			e.cfg, e.q, e.close = cfg, q, closeFn
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { e.close() },
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: ./.env when present)")

	root.AddCommand(newListCmd(e), newTrendsCmd(e), newBrowseCmd(e))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luisdotcom/db-hub/internal/api"
	"github.com/luisdotcom/db-hub/internal/app"
	"github.com/luisdotcom/db-hub/internal/auth"
)

func newServeCommand(opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the db-hub HTTP API until interrupted.

auth.password and auth.secret must be configured, for example through
DBHUB_AUTH__PASSWORD and DBHUB_AUTH__SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			logger := getLogger(cmd.Context())

			sessions, err := auth.NewManager(cfg.Auth)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("closing resources", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting db-hub", "version", Version, "addr", cfg.Server.Addr(), "targets", a.Resolver.Targets())
			return api.NewServer(a, sessions, cfg.Server, logger).Run(ctx)
		},
	}
}

// Package cli provides the dbhub command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luisdotcom/db-hub/internal/app"
	"github.com/luisdotcom/db-hub/internal/config"
)

// Version is set at build time.
var Version = "dev"

type configKey struct{}

type loggerKey struct{}

// NewRootCmd creates the root command. opts are passed to every App the
// subcommands build.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "dbhub",
		Short: "db-hub - multi-engine database console",
		Long: `db-hub runs queries, browses catalogs and edits rows on MySQL,
PostgreSQL and SQL Server through one API.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			var loader config.Loader
			cfg, err := loader.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if f := loader.FileUsed(); f != "" {
				logger.Debug("using config file", "path", f)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	flags.String("host", "", "API listen host")
	flags.Int("port", 0, "API listen port")
	flags.String("store", "", "path to the local SQLite store")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.Duration("timeout", 0, "per-statement execution timeout")
	flags.String("keyring", "", "where saved profile passwords live (none|os|memory)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("keyring", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.KeyringNone, config.KeyringOS, config.KeyringMemory}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newQueryCommand(opts))
	rootCmd.AddCommand(newDatabasesCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newClassifyCommand(opts))
	rootCmd.AddCommand(newVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig returns the config loaded by PersistentPreRunE.
func getConfig(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// openApp builds an App from the command's config. Callers must Close it.
func openApp(cmd *cobra.Command, opts []app.Option) (*app.App, error) {
	ctx := cmd.Context()
	cfg := getConfig(ctx)
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return app.New(cfg, Version, getLogger(ctx), opts...)
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dbhub v%s\n", version)
		},
	}
}

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luisdotcom/db-hub/internal/app"
	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/query"
)

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", formatTable, "output format (table|json)")
}

// parseTarget treats anything with a scheme as a custom connection string.
func parseTarget(s string) dbconn.Target {
	if strings.Contains(s, "://") {
		return dbconn.Target{Name: dbconn.CustomTarget, ConnectionString: s}
	}
	return dbconn.Target{Name: s}
}

// operator names the CLI user in the history ledger.
func operator() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func newQueryCommand(opts []app.Option) *cobra.Command {
	var target, database, format string
	cmd := &cobra.Command{
		Use:   "query [flags] SQL",
		Short: "Run one SQL statement",
		Example: `  dbhub query -t mysql -d shop "SELECT * FROM orders LIMIT 5"
  dbhub query -t 'postgresql://app@localhost:5432/app' "SELECT version()"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Query.Execute(cmd.Context(), query.Request{
				Owner:    operator(),
				Target:   parseTarget(target),
				Database: database,
				SQL:      strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "target name, profile:<id> or a connection URL")
	cmd.Flags().StringVarP(&database, "database", "d", "", "database to run against (default: the target's)")
	addFormatFlag(cmd, &format)
	return cmd
}

func newDatabasesCommand(opts []app.Option) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "databases TARGET",
		Short: "List user databases on a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			dbs, err := a.Metadata.ListDatabases(cmd.Context(), parseTarget(args[0]))
			if err != nil {
				return err
			}
			return renderNames(cmd.OutOrStdout(), "Database", dbs, format)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func newHistoryCommand(opts []app.Option) *cobra.Command {
	var (
		limit  int
		format string
		purge  bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the query history of the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if purge {
				n, err := a.History.Clear(cmd.Context(), operator())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d entries\n", n)
				return nil
			}
			entries, err := a.History.List(cmd.Context(), operator(), limit)
			if err != nil {
				return err
			}
			return renderHistory(cmd.OutOrStdout(), entries, format)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries to show")
	cmd.Flags().BoolVar(&purge, "clear", false, "delete all entries")
	addFormatFlag(cmd, &format)
	return cmd
}

func newClassifyCommand(opts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "classify TARGET",
		Short: "Print the dialect of a target without connecting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Resolver.Classify(cmd.Context(), parseTarget(args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", d, d.Label())
			return nil
		},
	}
}

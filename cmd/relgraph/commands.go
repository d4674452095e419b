package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/specterops/relgraph"
	_ "github.com/specterops/relgraph/drivers/neo4j"
	"github.com/specterops/relgraph/drivers/pg"
	"github.com/specterops/relgraph/manifest"
	"github.com/specterops/relgraph/storage"
	"github.com/specterops/relgraph/util"
	"github.com/spf13/cobra"
)

const connectionEnvironmentVariable = "RELGRAPH_CONNECTION"

type options struct {
	driver            string
	connection        string
	logLevel          string
	viewCacheCapacity int
	predicateMaxSteps uint64
}

func (s options) config() relgraph.Config {
	config := relgraph.DefaultConfig()
	config.ConnectionString = s.connection

	if s.viewCacheCapacity > 0 {
		config.ViewCacheCapacity = s.viewCacheCapacity
	}

	if s.predicateMaxSteps > 0 {
		config.PredicateMaxSteps = s.predicateMaxSteps
	}

	return config
}

func (s options) openCatalog(ctx context.Context) (storage.Catalog, error) {
	connection := s.connection
	if connection == "" {
		connection = os.Getenv(connectionEnvironmentVariable)
	}

	config := s.config()
	config.ConnectionString = connection

	return relgraph.Open(ctx, s.driver, config)
}

func execute(args []string) int {
	rootCmd := newRootCommand(os.Stdout)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "relgraph",
		Short:         "Build and inspect property graph views over relational tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level

			if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}

			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))

			return nil
		},
	}

	rootCmd.SetOut(stdout)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", pg.DriverName, "storage driver used to open the catalog")
	flags.StringVar(&opts.connection, "connection", "", "catalog connection string, defaults to $"+connectionEnvironmentVariable)
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.IntVar(&opts.viewCacheCapacity, "view-cache-capacity", relgraph.DefaultViewCacheCapacity, "number of views kept by the registry")
	flags.Uint64Var(&opts.predicateMaxSteps, "predicate-max-steps", relgraph.DefaultPredicateMaxSteps, "execution step bound of one predicate evaluation")

	rootCmd.AddCommand(
		newDumpCommand(opts),
		newDescribeCommand(opts),
	)

	return rootCmd
}

func newDumpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <manifest.yaml>",
		Short: "Load every view declared in a manifest and print its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			viewManifest, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			catalog, err := opts.openCatalog(ctx)
			if err != nil {
				return err
			}

			defer catalog.Close(ctx)

			registry := relgraph.NewRegistry(opts.config())

			views, err := viewManifest.Apply(ctx, registry, catalog)
			if err != nil {
				return err
			}

			sample := util.SLogSampleRepeated("dump")

			for _, graphView := range views {
				if err := registry.Factory().PrintGraphView(cmd.OutOrStdout(), graphView); err != nil {
					return err
				}

				sample(slog.String("view", graphView.Name()))
			}

			return nil
		},
	}
}

func newDescribeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>...",
		Short: "Print the tuple schema of catalog tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := opts.openCatalog(ctx)
			if err != nil {
				return err
			}

			defer catalog.Close(ctx)

			for _, name := range args {
				if table, err := catalog.Table(ctx, name); err != nil {
					return err
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", table.Name(), table.Schema())
				}
			}

			return nil
		},
	}
}

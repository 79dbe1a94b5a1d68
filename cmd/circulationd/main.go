// Command circulationd runs the circulation engine as an HTTP service.
//
//	circulationd serve     # HTTP API, /metrics and the periodic sweep
//	circulationd tick      # one overdue and expiry sweep, then exit
//	circulationd migrate   # create the events table and indexes
//	circulationd load      # random borrow/return/cancel traffic
//
// Every flag can also be set in the config file (--config) or as CIRCULATION_<FLAG>,
// with dashes turned into underscores.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(submain(context.Background()))
}

func submain(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "%s\n", err)
		}

		return 1
	}

	return 0
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "circulationd",
		Short:         "Lending, reservation and fine engine for a library's copies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCommand(),
		newTickCommand(),
		newMigrateCommand(),
		newLoadCommand(),
	)

	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the metrics endpoint and the periodic sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return a.serve(ctx)
			})
		},
	}
}

func newTickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Mark overdue loans and expire elapsed offers once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.coordinator.Tick(ctx)

				out, marshalErr := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(result, "", "  ")
				if marshalErr != nil {
					return errors.Join(err, marshalErr)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))

				return err
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the events table and its indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.store.postgres == nil {
					return errors.New("migrate needs --store postgres")
				}

				if err := a.store.ensureSchema(ctx); err != nil {
					return err
				}

				a.telemetry.logger.InfoContext(ctx, "schema ensured", "table", a.store.postgres.TableName())

				return nil
			})
		},
	}
}

func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	return run(ctx, a)
}

func configFrom(cmd *cobra.Command) (daemonConfig, error) {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return daemonConfig{}, err
	}

	return loadConfig(v)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	formbuilder "github.com/goliatone/go-formbuilder"
	"github.com/goliatone/go-formbuilder/internal/server"
	"github.com/goliatone/go-formbuilder/pkg/schema"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// openBuilder opens the configured backend and returns a builder bound to
// it. The caller must call the returned close function.
func (o *RootOptions) openBuilder(ctx context.Context) (*formbuilder.Builder, func() error, error) {
	kv, closeKV, err := o.cfg.OpenKV(ctx)
	if err != nil {
		return nil, nil, err
	}
	b := formbuilder.New(
		formbuilder.WithRegistry(o.registry),
		formbuilder.WithKV(kv),
		formbuilder.WithLogger(o.logger),
		formbuilder.WithStoreOptions(store.WithHistoryLimit(o.cfg.History.Limit)),
	)
	return b, closeKV, nil
}

func newServeCommand(opts *RootOptions) *cobra.Command {
	var (
		addr     string
		basePath string
		title    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the builder API backed by the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, closeKV, err := opts.openBuilder(ctx)
			if err != nil {
				return err
			}
			defer closeKV()

			found, err := b.Load(ctx)
			if err != nil {
				return err
			}
			opts.logger.Info("serve: session ready",
				"driver", opts.cfg.Storage.Driver,
				"restored", found,
				"components", len(b.Schema().Components),
			)
			unsubscribe := b.Persistence().AutoSave(ctx, b.Store())
			defer unsubscribe()

			if addr == "" {
				addr = opts.cfg.Server.Addr
			}
			srv := server.New(b,
				server.WithLogger(opts.logger),
				server.WithBasePath(basePath),
				server.WithFormTitle(title),
			)
			return server.ListenAndServe(ctx, addr, srv.Handler(), opts.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "path prefix for every route")
	cmd.Flags().StringVar(&title, "title", "", "title used in generated documents")
	return cmd
}

func newStoreCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the persisted builder schema",
	}
	cmd.AddCommand(newStoreSaveCommand(opts))
	cmd.AddCommand(newStoreLoadCommand(opts))
	cmd.AddCommand(newStoreClearCommand(opts))
	return cmd
}

func newStoreSaveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <file|url>",
		Short: "Import a schema and persist it as the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.loadSchema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, closeKV, err := opts.openBuilder(cmd.Context())
			if err != nil {
				return err
			}
			defer closeKV()

			b.Store().SetSchema(loaded)
			if err := b.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d steps, %d components\n", len(loaded.Steps), len(loaded.Components))
			return nil
		},
	}
}

func newStoreLoadCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Print the persisted schema as a V2 document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeKV, err := opts.openBuilder(cmd.Context())
			if err != nil {
				return err
			}
			defer closeKV()

			found, err := b.Load(cmd.Context())
			if err != nil {
				return err
			}
			if !found {
				return errors.New("no saved schema")
			}
			data, err := schema.SerializeIndent(b.Schema())
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, append(data, '\n'))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newStoreClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeKV, err := opts.openBuilder(cmd.Context())
			if err != nil {
				return err
			}
			defer closeKV()

			if err := b.Persistence().Clear(cmd.Context(), b.Store()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
}

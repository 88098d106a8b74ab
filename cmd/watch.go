package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmmoran/viewbindgen/internal/action/watch"
	"github.com/cmmoran/viewbindgen/pkg/action/generate"
)

func init() {
	rootCmd.AddCommand(NewWatchCommand())
}

func NewWatchCommand() *cobra.Command {
	var debounce = watch.DefaultDebounce

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "regenerate bindings on change",
		Long:  "Generate once, then regenerate whenever a Go source under --in changes",
		RunE: func(c *cobra.Command, args []string) error {
			opts, err := loadOptions(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			run := func(context.Context) error {
				res, err := generate.Generate(opts)
				if err != nil {
					return err
				}
				if err := res.Err(); err != nil {
					slog.Warn("generated with diagnostics", "count", len(res.Diagnostics))
				}
				return nil
			}
			if err := run(ctx); err != nil {
				return err
			}
			w, err := watch.New(opts.InDir, debounce, run)
			if err != nil {
				return err
			}
			slog.Info("watching", "dir", opts.InDir, "debounce", debounce.String())
			return w.Run(ctx)
		},
	}
	addOptionFlags(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before regenerating")

	return watchCmd
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weave/pkg/live"
	"github.com/vango-dev/weave/pkg/scope"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		contexts []string
		addr     string
	)

	cmd := &cobra.Command{
		Use:   "serve <template>",
		Short: "Serve a live preview of a template",
		Long: `Serve a template over HTTP with live updates.

The page reconnects over a websocket and re-renders whenever the data
changes. POST a JSON object to /context to merge new data into the view,
or POST {"id", "type", "detail"} to /events to fire an event.

Examples:
  weave serve todo.html -c todo.yaml
  weave serve todo.html --addr=0.0.0.0:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), e, args[0], contexts)
		},
	}

	cmd.Flags().StringArrayVarP(&contexts, "context", "c", nil, "YAML context files merged in order")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration)")

	return cmd
}

func runServe(ctx context.Context, e *env, ref string, contextPaths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	markup, err := e.loadTemplate(ctx, ref)
	if err != nil {
		return err
	}
	contexts, err := readContexts(contextPaths)
	if err != nil {
		return err
	}

	srv, err := live.New(markup, nil, e.viewConfig(), live.Config{
		Addr:           e.cfg.Server.Addr,
		Title:          ref,
		AllowedOrigins: e.cfg.Server.AllowedOrigins,
		Metrics:        e.metrics,
		Logger:         e.logger,
	})
	if err != nil {
		return withTemplate(err, ref)
	}
	if _, err := srv.Update(ctx, scope.Merge(contexts...)); err != nil {
		return err
	}

	success("Serving %s at http://%s", ref, e.cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}

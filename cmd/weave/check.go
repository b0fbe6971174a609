package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/source"
)

func checkCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [template...]",
		Short: "Check templates for structural errors",
		Long: `Parse templates and report malformed directives.

Without arguments every .html file in the configured template directory
is checked.

Examples:
  weave check
  weave check todo.html list.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), e, cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}
	return cmd
}

func runCheck(ctx context.Context, e *env, stdout, stderr io.Writer, refs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(refs) == 0 {
		names, err := source.NewDir(e.cfg.TemplatesPath(), 0).List()
		if err != nil {
			return err
		}
		for _, name := range names {
			refs = append(refs, filepath.Join(e.cfg.TemplatesPath(), filepath.FromSlash(name)))
		}
	}

	failed := 0
	for _, ref := range refs {
		markup, err := e.loadTemplate(ctx, ref)
		if err == nil {
			var view *weave.View
			if view, err = weave.New(markup, nil, e.viewConfig()); err == nil {
				view.Cleanup()
			}
		}
		if err != nil {
			failed++
			errors.PrintError(stderr, withTemplate(err, ref))
			continue
		}
		fmt.Fprintf(stdout, "ok  %s\n", ref)
	}

	if failed > 0 {
		return errors.Newf(errors.CategoryTemplate, "%d of %d templates failed", failed, len(refs))
	}
	return nil
}

// withTemplate records ref on a structural error that lacks a template
// name.
func withTemplate(err error, ref string) error {
	we := errors.FromError(err, "")
	if we == nil || we.Code == "" {
		return err
	}
	if we.Template == "" {
		we.WithTemplate(ref)
	}
	return we
}

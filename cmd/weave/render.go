package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/render"
	"github.com/vango-dev/weave/pkg/scope"
)

func renderCmd(opts *globalOptions) *cobra.Command {
	var (
		contexts    []string
		showPatches bool
		pretty      bool
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template against one or more contexts",
		Long: `Render a template against YAML context files.

The first context produces the initial render. Each further context is
reconciled against the previous result in turn; with --patches the
mutations of every step are printed before the final HTML.

Examples:
  weave render todo.html -c todo.yaml
  weave render todo.html -c before.yaml -c after.yaml --patches
  weave render s3://site-templates/todo.html -c todo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), e, cmd.OutOrStdout(), args[0], contexts, showPatches, pretty)
		},
	}

	cmd.Flags().StringArrayVarP(&contexts, "context", "c", nil, "YAML context file (repeatable)")
	cmd.Flags().BoolVar(&showPatches, "patches", false, "Print the patches of each reconciliation")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the HTML output")

	return cmd
}

func runRender(ctx context.Context, e *env, w io.Writer, ref string, contextPaths []string, showPatches, pretty bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	markup, err := e.loadTemplate(ctx, ref)
	if err != nil {
		return err
	}
	contexts, err := readContexts(contextPaths)
	if err != nil {
		return err
	}
	if len(contexts) == 0 {
		contexts = []scope.Context{{}}
	}

	view, err := weave.New(markup, nil, e.viewConfig())
	if err != nil {
		return withTemplate(err, ref)
	}
	defer view.Cleanup()

	for i, data := range contexts {
		patches, err := view.Update(ctx, data)
		if err != nil {
			return err
		}
		if i > 0 && showPatches {
			fmt.Fprintf(w, "# %s: %d patches\n", contextPaths[i], len(patches))
			for _, p := range patches {
				fmt.Fprintln(w, formatPatch(p))
			}
		}
	}

	r := render.NewRenderer(render.RendererConfig{Pretty: pretty})
	if err := r.RenderChildren(w, view.Host()); err != nil {
		return err
	}
	if !pretty {
		fmt.Fprintln(w)
	}
	return nil
}

func formatPatch(p dom.Patch) string {
	switch p.Op {
	case dom.PatchSetText, dom.PatchSetValue, dom.PatchSetHTML:
		return fmt.Sprintf("%-11s %s %q", p.Op, p.Target, p.Value)
	case dom.PatchSetAttr:
		return fmt.Sprintf("%-11s %s %s=%q", p.Op, p.Target, p.Key, p.Value)
	case dom.PatchRemoveAttr:
		return fmt.Sprintf("%-11s %s %s", p.Op, p.Target, p.Key)
	case dom.PatchInsertNode:
		return fmt.Sprintf("%-11s %s into %s before %s: %s", p.Op, p.Target, p.Parent, orEnd(p.Before), render.String(p.Node))
	case dom.PatchMoveNode:
		return fmt.Sprintf("%-11s %s into %s before %s", p.Op, p.Target, p.Parent, orEnd(p.Before))
	case dom.PatchRemoveNode:
		return fmt.Sprintf("%-11s %s from %s", p.Op, p.Target, p.Parent)
	default:
		return fmt.Sprintf("%-11s %s %q", p.Op, p.Target, p.Value)
	}
}

func orEnd(id dom.NodeID) string {
	if id == 0 {
		return "end"
	}
	return id.String()
}

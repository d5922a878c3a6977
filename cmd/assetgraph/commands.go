package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/assetgraph/api"
	"github.com/kbukum/assetgraph/controller"
	"github.com/kbukum/assetgraph/dag"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/importer"
	"github.com/kbukum/assetgraph/store"
	"github.com/kbukum/assetgraph/version"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "assetgraph",
		Short:         "Run asset pipeline graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file path")
	pf.StringVar(&flags.envFile, "env-file", "", "Env file loaded before reading ASSETGRAPH_ variables")
	pf.StringVar(&flags.project, "project", "", "Project root (default from config, then .)")
	pf.StringVar(&flags.target, "target", "", "Build target (default from config)")

	root.AddCommand(
		validateCmd(flags),
		buildCmd(flags),
		importCmd(flags),
		watchCmd(flags),
		serveCmd(flags),
		loadersCmd(flags),
		planCmd(flags),
		versionCmd(),
	)
	return root
}

// withApp wires an app and runs fn inside its task lifecycle.
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd.Context(), flags)
	if err != nil {
		return err
	}
	return a.runTask(cmd.Context(), func(ctx context.Context) error { return fn(ctx, a) })
}

// loadGraph loads the project graph and prints what healing changed.
func (a *app) loadGraph(ctx context.Context, w io.Writer) (*graph.Graph, error) {
	g, report, err := a.store.LoadGraph(ctx)
	if err != nil {
		return nil, err
	}
	for _, msg := range report.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	if n := len(report.RemovedNodes) + len(report.RemovedConnections); n > 0 {
		fmt.Fprintf(w, "warning: removed %d broken nodes or connections from the graph\n", n)
	}
	return g, nil
}

func validateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run Setup over the graph and report node errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				g, err := a.loadGraph(ctx, out)
				if err != nil {
					return err
				}
				outcome, err := a.ctrl.Perform(ctx, g, controller.Options{Target: a.cfg.Build.Target})
				if err != nil {
					return err
				}
				return report(out, outcome.Errors, fmt.Sprintf("graph is valid for %s (%d nodes)", outcome.Target, outcome.Visited()))
			})
		},
	}
}

func buildCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the graph for the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				g, err := a.loadGraph(ctx, out)
				if err != nil {
					return err
				}
				outcome, err := a.ctrl.Perform(ctx, g, controller.Options{
					Target:    a.cfg.Build.Target,
					ActualRun: true,
					OnError: func(e *errors.NodeError) {
						fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e.Error())
					},
				})
				if err != nil {
					return err
				}
				if !outcome.OK() {
					return report(out, outcome.Errors, "")
				}
				errs, err := a.ctrl.Postprocess(ctx, outcome, true)
				if err != nil {
					return err
				}
				return report(out, errs, fmt.Sprintf("built %s: %d nodes in %s", outcome.Target, outcome.Visited(), outcome.Duration.Round(time.Millisecond)))
			})
		},
	}
}

func importCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>...",
		Short: "Import files through the preprocess loaders that own them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				reports, err := a.importer.ImportBatch(ctx, args)
				if err != nil {
					return err
				}
				return printReports(cmd.OutOrStdout(), reports)
			})
		},
	}
}

func watchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Import files as they change below the project root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				w := importer.NewWatcher(a.importer, importer.WatchOptions{
					QuietPeriod: a.cfg.Watch.QuietPeriod,
					Ignore:      a.cfg.Watch.Ignore,
					OnBatch: func(_ []string, reports []*importer.Report, err error) {
						if err == nil {
							_ = printReports(out, reports)
						}
					},
				})
				return w.Run(ctx)
			})
		},
	}
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				h := api.NewHandler(a.cfg.Name, a.store, a.ctrl,
					api.WithImporter(a.importer),
					api.WithDefaultTarget(a.cfg.Build.Target),
				)
				srv := api.NewServer(a.cfg.Server, h, a.log.WithComponent("api"))
				if err := srv.Start(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", srv.Addr())
				<-ctx.Done()
				return srv.Stop(context.Background())
			})
		},
	}
}

func loadersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loaders",
		Short: "Print the loader registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				idx, err := a.store.LoadLoaders(ctx)
				if err != nil {
					return err
				}
				data, err := store.JSONCodec{}.Marshal(store.LoadersToRecord(idx))
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "best <path>",
		Short: "Print the loader that owns an asset path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				idx, err := a.store.LoadLoaders(ctx)
				if err != nil {
					return err
				}
				entry, ok := idx.Best(args[0], a.cfg.Build.Target)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "no loader owns %s\n", args[0])
					return exitError{code: 1}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s preprocess=%t\n", entry.ID, entry.Path.Get(a.cfg.Build.Target), entry.PreProcess)
				return nil
			})
		},
	})
	return cmd
}

func planCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the execution order of the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				g, err := a.loadGraph(ctx, out)
				if err != nil {
					return err
				}
				s, err := dag.Plan(g)
				if err != nil {
					return err
				}
				for i, level := range s.Levels {
					names := make([]string, 0, len(level))
					for _, id := range level {
						names = append(names, nodeLabel(g.FindNode(id)))
					}
					fmt.Fprintf(out, "%d: %s\n", i, strings.Join(names, ", "))
				}
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

func nodeLabel(n *graph.Node) string {
	return fmt.Sprintf("%s [%s]", n.Name, n.Kind())
}

// report prints node errors and fails with exit status 1 when there are
// any; otherwise it prints ok.
func report(w io.Writer, errs []*errors.NodeError, ok string) error {
	if len(errs) == 0 {
		if ok != "" {
			fmt.Fprintln(w, ok)
		}
		return nil
	}
	for _, e := range errs {
		fmt.Fprintf(w, "%s [%s] %s\n", e.Phase, e.Code, e.Error())
	}
	fmt.Fprintf(w, "%d error(s)\n", len(errs))
	return exitError{code: 1}
}

func printReports(w io.Writer, reports []*importer.Report) error {
	failed := false
	for _, r := range reports {
		switch {
		case r.Skipped != "":
			fmt.Fprintf(w, "skipped %s: %s\n", strings.Join(r.Paths, ", "), r.Skipped)
		case len(r.Errors) > 0:
			failed = true
			fmt.Fprintf(w, "failed %s:\n", strings.Join(r.Paths, ", "))
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  [%s] %s\n", e.Code, e.Error())
			}
		default:
			fmt.Fprintf(w, "imported %s (%d nodes)\n", strings.Join(r.Paths, ", "), r.Processed)
		}
	}
	if failed {
		return exitError{code: 1}
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/assetgraph/config"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/graphtest"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/store"
)

// newProject writes files and g below a fresh project root.
func newProject(t *testing.T, g *graph.Graph, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	settings := filepath.Join(root, filepath.FromSlash(config.DefaultSettingsDir))
	st := store.New(
		filepath.Join(settings, config.DefaultGraphFile),
		filepath.Join(settings, config.DefaultLoaderFile),
		store.WithLogger(logger.Nop()),
	)
	if err := st.SaveGraph(context.Background(), g); err != nil {
		t.Fatalf("SaveGraph: %v", err)
	}
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ASSETGRAPH_LOGGING_LEVEL", "error")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func exportGraph(t *testing.T, preprocess bool) *graph.Graph {
	t.Helper()
	return graphtest.NewBuilder().
		AddNode("Load", graph.KindLoader, func(n *graph.Node) {
			lc, _ := graph.ConfigAs[*graph.LoaderConfig](n)
			lc.LoadPath = graph.Uniform("Assets/tex")
			lc.PreProcess = preprocess
		}).
		AddNode("Export", graph.KindExporter, func(n *graph.Node) {
			ec, _ := graph.ConfigAs[*graph.ExporterConfig](n)
			ec.ExportPath = graph.Uniform("Export")
			ec.Option = graph.Uniform(graph.ExportCreateIfMissing)
		}).
		Connect("Load", "Export").
		MustBuild(t)
}

func TestValidateAndBuild(t *testing.T) {
	root := newProject(t, exportGraph(t, false), "Assets/tex/a.png")

	out, err := run(t, "validate", "--project", root)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "graph is valid for default (2 nodes)") {
		t.Fatalf("unexpected validate output %q", out)
	}

	out, err = run(t, "build", "--project", root, "--target", "ios")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "built ios: 2 nodes") {
		t.Fatalf("unexpected build output %q", out)
	}
	if _, err := os.Stat(filepath.Join(root, "Export", "Assets", "tex", "a.png")); err != nil {
		t.Fatalf("expected the asset to be exported: %v", err)
	}
}

func TestValidate_NodeErrorsExitNonZero(t *testing.T) {
	g := graphtest.NewBuilder().
		Loader("Load", "Assets/missing").
		MustBuild(t)
	root := newProject(t, g)

	out, err := run(t, "validate", "--project", root)
	var exit exitError
	if !errors.As(err, &exit) || exit.code != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	if !strings.Contains(out, "[NODE_CONFIG] Load: Directory not found") || !strings.Contains(out, "1 error(s)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestImportCommand(t *testing.T) {
	root := newProject(t, exportGraph(t, true), "Assets/tex/a.png", "Assets/tex/b.png")

	out, err := run(t, "import", "--project", root, "Assets/tex/b.png", "Assets/elsewhere/c.png")
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	for _, want := range []string{
		"skipped Assets/elsewhere/c.png: no loader owns the file",
		"imported Assets/tex/b.png (2 nodes)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "Export", "Assets", "tex", "a.png")); !os.IsNotExist(err) {
		t.Fatal("only the imported file should be exported")
	}
}

func TestLoadersAndPlan(t *testing.T) {
	g := exportGraph(t, true)
	root := newProject(t, g)

	out, err := run(t, "loaders", "--project", root)
	if err != nil {
		t.Fatalf("loaders: %v", err)
	}
	if !strings.Contains(out, g.Nodes[0].ID) || !strings.Contains(out, `"preprocess": true`) {
		t.Fatalf("unexpected registry output %q", out)
	}

	out, err = run(t, "loaders", "best", "--project", root, "Assets/tex/sub/a.png")
	if err != nil {
		t.Fatalf("loaders best: %v", err)
	}
	if !strings.HasPrefix(out, g.Nodes[0].ID+" Assets/tex") {
		t.Fatalf("unexpected best output %q", out)
	}

	_, err = run(t, "loaders", "best", "--project", root, "Other/a.png")
	var exit exitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected an exit error for an unowned path, got %v", err)
	}

	out, err = run(t, "plan", "--project", root)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := "0: Load [Loader]\n1: Export [Exporter]\n"
	if out != want {
		t.Fatalf("plan output = %q, want %q", out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || strings.TrimSpace(out) == "" {
		t.Fatalf("version: %q %v", out, err)
	}
}

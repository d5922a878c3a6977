package operation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/graph"
)

func TestRequestHelpers(t *testing.T) {
	a := asset.New("/p", "/p/a.png")
	b := asset.New("/p", "/p/b.png")
	c1 := &graph.Connection{ID: "c1", ToPointID: "in1", FromPointID: "x"}
	c2 := &graph.Connection{ID: "c2", ToPointID: "in2", FromPointID: "y"}
	c3 := &graph.Connection{ID: "c3", ToPointID: "in2"}
	out1 := &graph.Connection{ID: "o1", FromPointID: "out"}
	out2 := &graph.Connection{ID: "o2", FromPointID: "other"}

	req := &Request{
		Inputs: []Input{
			{Connection: c1, Group: asset.Single(a), Cached: []string{"k2", "k1"}, Delivered: true},
			{Connection: c2, Group: asset.Single(b, a), Cached: []string{"k1"}, Delivered: true},
			{Connection: c3, Group: asset.Single(asset.New("/p", "/p/ghost.png")), Delivered: false},
		},
		Outputs: []*graph.Connection{out1, out2},
	}

	if diff := cmp.Diff(map[string][]string{asset.DefaultKey: {"a.png", "b.png"}}, req.Merged().Paths()); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k1", "k2"}, req.Cached()); diff != "" {
		t.Fatalf("cached mismatch (-want +got):\n%s", diff)
	}
	if got := req.InputsAt("in2"); len(got) != 2 {
		t.Fatalf("expected 2 inputs at in2, got %d", len(got))
	}
	if got := req.OutputsFrom("out"); len(got) != 1 || got[0].ID != "o1" {
		t.Fatalf("unexpected outputs %v", got)
	}
	if req.Logger() == nil {
		t.Fatal("Logger should never be nil")
	}

	var emitted []string
	EmitAll(req, func(c *graph.Connection, g asset.Group, cached []string) {
		emitted = append(emitted, c.ID)
	}, asset.Group{}, nil)
	if diff := cmp.Diff([]string{"o1", "o2"}, emitted); diff != "" {
		t.Fatalf("emit mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := Func(func(context.Context, *Request, Emit) error { return nil })
	r.Register(graph.KindLoader, noop)
	r.Register(graph.KindFilter, noop)

	if _, ok := r.Get(graph.KindLoader); !ok {
		t.Fatal("expected loader operation")
	}
	if _, ok := r.Get(graph.KindExporter); ok {
		t.Fatal("exporter was never registered")
	}
	if diff := cmp.Diff([]graph.Kind{graph.KindFilter, graph.KindLoader}, r.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

type stubModifier struct{ data string }

func (s *stubModifier) TargetType() asset.Type { return asset.TypeAny }
func (s *stubModifier) IsModified(asset.Asset) bool { return false }
func (s *stubModifier) Serialize() (string, error) { return s.data, nil }
func (s *stubModifier) Modify(_ context.Context, a asset.Asset) (asset.Asset, error) {
	return a, nil
}

func TestCatalog(t *testing.T) {
	c := NewCatalog[Modifier]()
	c.Register("Stub", func(data string) (Modifier, error) {
		if data == "bad" {
			return nil, errors.New("bad data")
		}
		return &stubModifier{data: data}, nil
	})

	m, err := c.Create("Stub", `{"x":1}`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s, _ := m.Serialize(); s != `{"x":1}` {
		t.Fatalf("unexpected serialized data %q", s)
	}
	if _, err := c.Create("Stub", "bad"); err == nil {
		t.Fatal("expected factory error")
	}
	if _, err := c.Create("Missing", ""); err == nil {
		t.Fatal("expected unknown class error")
	}
	if !c.Has("Stub") || c.Has("Missing") {
		t.Fatal("unexpected Has result")
	}
	if diff := cmp.Diff([]string{"Stub"}, c.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestEnv(t *testing.T) {
	env := &Env{ProjectRoot: "/proj", CacheDir: "/proj/cache"}
	if got := env.Abs("Assets/a.png"); got != filepath.FromSlash("/proj/Assets/a.png") {
		t.Fatalf("unexpected abs %q", got)
	}
	if got := env.Abs("/abs/../x"); got != "/x" {
		t.Fatalf("absolute paths should only be cleaned, got %q", got)
	}
	if got := env.CachePath("BundleBuilder", "ios"); got != "/proj/cache/BundleBuilder/ios" {
		t.Fatalf("unexpected cache path %q", got)
	}

	if _, ok := env.Seed("l1"); ok {
		t.Fatal("no seeds yet")
	}
	seeded := env.WithSeeds(map[string][]string{"l1": {"/proj/Assets/a.png"}})
	if files, ok := seeded.Seed("l1"); !ok || len(files) != 1 {
		t.Fatal("expected seeded files")
	}
	if env.Seeds != nil {
		t.Fatal("WithSeeds must not modify the receiver")
	}
}

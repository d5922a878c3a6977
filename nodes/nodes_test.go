package nodes

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

type emission struct {
	conn   *graph.Connection
	group  asset.Group
	cached []string
}

type recorder struct {
	got []emission
}

func (r *recorder) emit(c *graph.Connection, g asset.Group, cached []string) {
	r.got = append(r.got, emission{conn: c, group: g, cached: cached})
}

func (r *recorder) only(t *testing.T) emission {
	t.Helper()
	if len(r.got) != 1 {
		t.Fatalf("expected exactly one emission, got %d", len(r.got))
	}
	return r.got[0]
}

// newProject creates a project root holding files, each containing its own
// path.
func newProject(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("content of "+f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newEnv(root string) *operation.Env {
	return &operation.Env{
		ProjectRoot: root,
		SettingsDir: "AssetBundleGraph/SettingFiles",
		CacheDir:    filepath.Join(root, "AssetBundleGraph", "Cache"),
		Plugins:     NewPlugins(),
	}
}

// request builds a request for n with one outgoing connection per output
// point.
func request(env *operation.Env, n *graph.Node, phase operation.Phase, inputs ...operation.Input) *operation.Request {
	outs := make([]*graph.Connection, 0, len(n.Outputs))
	for i, p := range n.Outputs {
		outs = append(outs, &graph.Connection{
			ID:          "out-" + strconv.Itoa(i),
			Label:       p.Label,
			FromNodeID:  n.ID,
			FromPointID: p.ID,
			ToNodeID:    "next",
			ToPointID:   "next-in",
		})
	}
	return &operation.Request{
		Phase:   phase,
		Target:  graph.DefaultTarget,
		Node:    n,
		Inputs:  inputs,
		Outputs: outs,
		Env:     env,
	}
}

// deliver feeds g into the first input point of n.
func deliver(n *graph.Node, g asset.Group) operation.Input {
	return deliverAt(n, n.Inputs[0].ID, g)
}

func deliverAt(n *graph.Node, pointID string, g asset.Group) operation.Input {
	return operation.Input{
		Connection: &graph.Connection{ID: "in-" + pointID, ToNodeID: n.ID, ToPointID: pointID},
		Group:      g,
		Delivered:  true,
	}
}

func assets(root string, paths ...string) []asset.Asset {
	out := make([]asset.Asset, 0, len(paths))
	for _, p := range paths {
		out = append(out, asset.New(root, filepath.Join(root, filepath.FromSlash(p))))
	}
	return out
}

func perform(t *testing.T, op operation.Operation, req *operation.Request) (*recorder, error) {
	t.Helper()
	rec := &recorder{}
	var err error
	switch req.Phase {
	case operation.PhaseSetup:
		err = op.Setup(context.Background(), req, rec.emit)
	default:
		err = op.Run(context.Background(), req, rec.emit)
	}
	return rec, err
}

func mustPerform(t *testing.T, op operation.Operation, req *operation.Request) *recorder {
	t.Helper()
	rec, err := perform(t, op, req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Node.Kind(), req.Phase, err)
	}
	return rec
}

func expectCode(t *testing.T, err error, code errors.ErrorCode, contains string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !errors.IsCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("expected error to contain %q, got %q", contains, err.Error())
	}
}

func newLoader(name, path string) *graph.Node {
	n := graph.NewNode(name, graph.KindLoader, 0, 0)
	lc, _ := graph.ConfigAs[*graph.LoaderConfig](n)
	lc.LoadPath = graph.Uniform(path)
	return n
}

// --- Loader ---

func TestLoader_CollectsOwnedFiles(t *testing.T) {
	root := newProject(t,
		"Assets/Tex/a.png",
		"Assets/Tex/b.png",
		"Assets/Tex/a.png.meta",
		"Assets/Tex/notes.txt",
		"Assets/Tex/Sub/c.png",
		"Assets/Settings/graph.png",
	)
	g := graph.New()
	all := newLoader("All", "Assets")
	nested := newLoader("Nested", "Assets/Tex/Sub")
	_ = g.AddNode(all)
	_ = g.AddNode(nested)

	env := newEnv(root)
	env.SettingsDir = "Assets/Settings"
	env.Loaders = graph.IndexLoaders(g)

	setup := mustPerform(t, Loader{}, request(env, all, operation.PhaseSetup)).only(t)
	want := map[string][]string{asset.DefaultKey: {"Assets/Tex/a.png", "Assets/Tex/b.png", "Assets/Tex/notes.txt"}}
	if diff := cmp.Diff(want, setup.group.Paths()); diff != "" {
		t.Fatalf("setup paths mismatch (-want +got):\n%s", diff)
	}
	for _, a := range setup.group.Flatten() {
		if a.Fingerprint() != "" {
			t.Fatalf("setup must not read %s", a.Path())
		}
	}

	run := mustPerform(t, Loader{}, request(env, all, operation.PhaseRun)).only(t)
	if diff := cmp.Diff(want, run.group.Paths()); diff != "" {
		t.Fatalf("run paths mismatch (-want +got):\n%s", diff)
	}
	for _, a := range run.group.Flatten() {
		if a.Fingerprint() == "" || a.Size() == 0 {
			t.Fatalf("run should fingerprint %s", a.Path())
		}
	}

	sub := mustPerform(t, Loader{}, request(env, nested, operation.PhaseSetup)).only(t)
	if diff := cmp.Diff(map[string][]string{asset.DefaultKey: {"Assets/Tex/Sub/c.png"}}, sub.group.Paths()); diff != "" {
		t.Fatalf("nested loader mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_MissingDirectory(t *testing.T) {
	root := newProject(t, "Assets/a.png")
	n := newLoader("Missing", "Assets")
	lc, _ := graph.ConfigAs[*graph.LoaderConfig](n)
	lc.LoadPath = lc.LoadPath.Set("ios", "Nowhere")

	req := request(newEnv(root), n, operation.PhaseSetup)
	req.Target = "ios"
	_, err := perform(t, Loader{}, req)
	expectCode(t, err, errors.ErrCodeNodeConfig, "Directory not found")

	req.Target = "android"
	mustPerform(t, Loader{}, req)
}

func TestLoader_EmptyPathEmitsEmptyGroup(t *testing.T) {
	root := newProject(t, "Assets/a.png")
	n := newLoader("Empty", "")
	got := mustPerform(t, Loader{}, request(newEnv(root), n, operation.PhaseSetup)).only(t)
	if got.group.Len() != 0 {
		t.Fatalf("expected no assets, got %v", got.group.Paths())
	}
}

func TestLoader_Seeds(t *testing.T) {
	root := newProject(t, "Assets/a.png", "Assets/b.png", "Assets/c.cs")
	n := newLoader("Seeded", "Assets")
	env := newEnv(root).WithSeeds(map[string][]string{
		n.ID: {"Assets/b.png", filepath.Join(root, "Assets", "c.cs")},
	})

	got := mustPerform(t, Loader{}, request(env, n, operation.PhaseRun)).only(t)
	if diff := cmp.Diff(map[string][]string{asset.DefaultKey: {"Assets/b.png"}}, got.group.Paths()); diff != "" {
		t.Fatalf("seeded mismatch (-want +got):\n%s", diff)
	}
}

// --- Filter ---

func TestFilter_RoutesPerCondition(t *testing.T) {
	root := t.TempDir()
	in := asset.Single(assets(root, "Assets/Tex/a.png", "Assets/Tex/b.png", "Assets/Tex/notes.txt", "Assets/Models/m.fbx")...)

	n := graph.NewNode("Filter", graph.KindFilter, 0, 0)
	_, _ = n.AddFilterCondition("png", ".png", "", false)
	_, _ = n.AddFilterCondition("not png", ".png", "", true)
	_, _ = n.AddFilterCondition("tex glob", "Assets/Tex/*", asset.TypeTexture, false)
	_, _ = n.AddFilterCondition("models by name", "*.fbx", asset.TypeAny, false)
	_, _ = n.AddFilterCondition("all", "*", asset.TypeAny, false)

	req := request(newEnv(root), n, operation.PhaseSetup, deliver(n, in))
	rec := mustPerform(t, Filter{}, req)
	if len(rec.got) != 5 {
		t.Fatalf("expected one emission per condition, got %d", len(rec.got))
	}

	want := [][]string{
		{"Assets/Tex/a.png", "Assets/Tex/b.png"},
		{"Assets/Tex/notes.txt", "Assets/Models/m.fbx"},
		{"Assets/Tex/a.png", "Assets/Tex/b.png"},
		{"Assets/Models/m.fbx"},
		{"Assets/Tex/a.png", "Assets/Tex/b.png", "Assets/Tex/notes.txt", "Assets/Models/m.fbx"},
	}
	for i, e := range rec.got {
		if e.conn.FromPointID != n.Outputs[i].ID {
			t.Fatalf("emission %d went to the wrong point", i)
		}
		if diff := cmp.Diff(want[i], e.group.Paths()[asset.DefaultKey]); diff != "" {
			t.Errorf("condition %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestFilter_DuplicateCondition(t *testing.T) {
	n := graph.NewNode("Dup", graph.KindFilter, 0, 0)
	_, _ = n.AddFilterCondition("a", ".png", asset.TypeAny, false)
	_, _ = n.AddFilterCondition("b", ".png", asset.TypeAny, false)

	_, err := perform(t, Filter{}, request(newEnv(t.TempDir()), n, operation.PhaseSetup))
	expectCode(t, err, errors.ErrCodeNodeConfig, "Duplicated filter condition found for [Keyword:.png Type:Any]")
}

func TestFilter_ExclusionIsNotDuplicate(t *testing.T) {
	n := graph.NewNode("Pair", graph.KindFilter, 0, 0)
	_, _ = n.AddFilterCondition("a", ".png", asset.TypeAny, false)
	_, _ = n.AddFilterCondition("b", ".png", asset.TypeAny, true)
	mustPerform(t, Filter{}, request(newEnv(t.TempDir()), n, operation.PhaseSetup))
}

func TestMatchKeyword(t *testing.T) {
	tests := []struct {
		keyword string
		path    string
		want    bool
	}{
		{"", "Assets/a.png", true},
		{"*", "Assets/a.png", true},
		{"Tex", "Assets/Tex/a.png", true},
		{"tex", "Assets/Tex/a.png", false},
		{"Assets/**/*.png", "Assets/Tex/Deep/a.png", true},
		{"*.png", "Assets/Tex/a.png", true},
		{"Assets/*.png", "Assets/Tex/a.png", false},
		{"a.{png,jpg}", "Assets/a.jpg", true},
	}
	for _, tt := range tests {
		if got := matchKeyword(tt.keyword, tt.path); got != tt.want {
			t.Errorf("matchKeyword(%q, %q) = %v, want %v", tt.keyword, tt.path, got, tt.want)
		}
	}
}

// --- Grouping ---

func TestGrouping_BucketsByCapture(t *testing.T) {
	root := t.TempDir()
	in := asset.Single(assets(root, "Assets/Group_a/x.png", "Assets/Group_b/y.png", "Assets/Group_a/z.png", "Assets/Other/w.png")...)
	n := graph.NewNode("Group", graph.KindGrouping, 0, 0)

	got := mustPerform(t, Grouping{}, request(newEnv(root), n, operation.PhaseRun, deliver(n, in))).only(t)
	want := map[string][]string{
		"a": {"Assets/Group_a/x.png", "Assets/Group_a/z.png"},
		"b": {"Assets/Group_b/y.png"},
	}
	if diff := cmp.Diff(want, got.group.Paths()); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestGrouping_InvalidKeyword(t *testing.T) {
	for _, kw := range []string{"", "Group", "Group_*/*"} {
		n := graph.NewNode("Group", graph.KindGrouping, 0, 0)
		gc, _ := graph.ConfigAs[*graph.GroupingConfig](n)
		gc.Keyword = graph.Uniform(kw)
		_, err := perform(t, Grouping{}, request(newEnv(t.TempDir()), n, operation.PhaseSetup))
		if !errors.IsCode(err, errors.ErrCodeNodeConfig) {
			t.Errorf("keyword %q: expected NODE_CONFIG, got %v", kw, err)
		}
	}
}

// --- BundleConfig ---

func TestBundleConfig_NamesBundles(t *testing.T) {
	root := t.TempDir()
	n := graph.NewNode("Bundles", graph.KindBundleConfig, 0, 0)
	hd, _ := n.AddVariant("HD")
	bc, _ := graph.ConfigAs[*graph.BundleConfigSettings](n)
	bc.SetBundleNameAndVariant = true

	base := asset.Group{
		"Hero":  assets(root, "Assets/hero.png"),
		"Enemy": assets(root, "Assets/enemy.png"),
	}
	variant := asset.Group{"Hero": assets(root, "Assets/HD/hero.png")}

	got := mustPerform(t, BundleConfig{}, request(newEnv(root), n, operation.PhaseRun,
		deliver(n, base), deliverAt(n, hd.PointID, variant))).only(t)

	want := map[string][]string{
		"bundle_enemy":   {"Assets/enemy.png"},
		"bundle_hero":    {"Assets/hero.png"},
		"bundle_hero.hd": {"Assets/HD/hero.png"},
	}
	if diff := cmp.Diff(want, got.group.Paths()); diff != "" {
		t.Fatalf("bundles mismatch (-want +got):\n%s", diff)
	}
	a := got.group["bundle_hero.hd"][0]
	if name, _ := a.Attr(AttrBundleName); name != "bundle_hero" {
		t.Errorf("expected bundle name attr, got %q", name)
	}
	if v, _ := a.Attr(AttrBundleVariant); v != "hd" {
		t.Errorf("expected variant attr, got %q", v)
	}
	if got.conn.FromPointID != n.Outputs[0].ID {
		t.Error("expected emission on the bundles output")
	}
}

func TestBundleConfig_GroupsAsVariants(t *testing.T) {
	root := t.TempDir()
	n := graph.NewNode("Chars", graph.KindBundleConfig, 0, 0)
	bc, _ := graph.ConfigAs[*graph.BundleConfigSettings](n)
	bc.NameTemplate = graph.Uniform("chars_*")
	bc.UseGroupAsVariants = true

	in := asset.Group{"SD": assets(root, "Assets/sd.png"), "HD": assets(root, "Assets/hd.png")}
	got := mustPerform(t, BundleConfig{}, request(newEnv(root), n, operation.PhaseSetup, deliver(n, in))).only(t)
	if diff := cmp.Diff([]string{"chars.hd", "chars.sd"}, got.group.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestBundleConfig_InvalidTemplate(t *testing.T) {
	n := graph.NewNode("Bad", graph.KindBundleConfig, 0, 0)
	bc, _ := graph.ConfigAs[*graph.BundleConfigSettings](n)
	bc.NameTemplate = graph.Uniform("bundle")
	_, err := perform(t, BundleConfig{}, request(newEnv(t.TempDir()), n, operation.PhaseSetup))
	expectCode(t, err, errors.ErrCodeNodeConfig, "exactly one '*'")
}

// --- ImportSetting and Warp ---

func TestImportSetting(t *testing.T) {
	root := t.TempDir()
	n := graph.NewNode("Import", graph.KindImportSetting, 0, 0)

	mixed := asset.Single(assets(root, "Assets/a.png", "Assets/m.fbx")...)
	_, err := perform(t, ImportSetting{}, request(newEnv(root), n, operation.PhaseSetup, deliver(n, mixed)))
	expectCode(t, err, errors.ErrCodeTypeMismatch, "ImportSetting expect Texture")

	in := asset.Single(assets(root, "Assets/a.png", "Assets/b.png")...)
	got := mustPerform(t, ImportSetting{}, request(newEnv(root), n, operation.PhaseRun, deliver(n, in))).only(t)
	for _, a := range got.group.Flatten() {
		if v, _ := a.Attr(AttrImportSetting); v != n.ID {
			t.Fatalf("expected import setting attr on %s", a.Path())
		}
	}
	if _, ok := in[asset.DefaultKey][0].Attr(AttrImportSetting); ok {
		t.Fatal("input assets must not be modified")
	}
}

func TestWarp_PassesThrough(t *testing.T) {
	root := t.TempDir()
	in, out, _, err := graph.New().NewWarpPair("warp", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	g := asset.Group{"k": assets(root, "Assets/a.png")}
	input := deliver(out, g)
	input.Cached = []string{"k"}

	got := mustPerform(t, Warp{}, request(newEnv(root), out, operation.PhaseRun, input)).only(t)
	if diff := cmp.Diff(g.Paths(), got.group.Paths()); diff != "" {
		t.Fatalf("warp changed data (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k"}, got.cached); diff != "" {
		t.Fatalf("warp dropped cached keys (-want +got):\n%s", diff)
	}
	if len(in.Outputs) != 1 || !in.Outputs[0].Hidden {
		t.Fatal("warp in should have one hidden output")
	}
}

func TestRegister_CoversEveryKind(t *testing.T) {
	reg := NewRegistry()
	for _, k := range graph.Kinds {
		if _, ok := reg.Get(k); !ok {
			t.Errorf("no operation registered for %s", k)
		}
	}
	p := NewPlugins()
	if !p.Validators.Has(MaxFileSizeClass) || !p.Modifiers.Has(TagClass) || !p.PrefabBuilders.Has(ManifestClass) {
		t.Fatal("expected built-in plugins to be registered")
	}
}

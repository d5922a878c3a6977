package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
)

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func mustConnect(t *testing.T, g *Graph, from, to *Node) *Connection {
	t.Helper()
	c, err := g.Connect(from.ID, from.Outputs[0].ID, to.ID, to.Inputs[0].ID, "")
	if err != nil {
		t.Fatalf("connect %s -> %s: %v", from.Name, to.Name, err)
	}
	return c
}

func addNode(t *testing.T, g *Graph, name string, kind Kind) *Node {
	t.Helper()
	n := NewNode(name, kind, 0, 0)
	n.ID = name
	for _, p := range n.Inputs {
		p.NodeID = name
	}
	for _, p := range n.Outputs {
		p.NodeID = name
	}
	if err := g.AddNode(n); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	return n
}

func TestNewNodeDefaults(t *testing.T) {
	tests := []struct {
		kind    Kind
		inputs  int
		outputs int
	}{
		{KindLoader, 0, 1},
		{KindFilter, 1, 0},
		{KindExporter, 1, 0},
		{KindGrouping, 1, 1},
		{KindBundleBuilder, 1, 1},
		{KindWarpIn, 1, 1},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			n := NewNode("n", tc.kind, 1, 2)
			if n.Kind() != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, n.Kind())
			}
			if len(n.Inputs) != tc.inputs || len(n.Outputs) != tc.outputs {
				t.Fatalf("expected %d/%d points, got %d/%d", tc.inputs, tc.outputs, len(n.Inputs), len(n.Outputs))
			}
			if !n.Validate([]*Node{n}, nil) {
				t.Fatal("a fresh node should validate")
			}
		})
	}

	warpOut := NewNode("w", KindWarpOut, 0, 0)
	if !warpOut.Inputs[0].Hidden || warpOut.Outputs[0].Hidden {
		t.Fatal("warp out should hide its input only")
	}
	grouping, _ := ConfigAs[*GroupingConfig](NewNode("g", KindGrouping, 0, 0))
	if grouping.Keyword.Get("ios") != DefaultGroupingKeyword {
		t.Fatalf("unexpected grouping default %q", grouping.Keyword.Get("ios"))
	}
	if _, ok := ConfigAs[*FilterConfig](NewNode("g", KindGrouping, 0, 0)); ok {
		t.Fatal("ConfigAs must not hand out the wrong variant")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"Loader":            KindLoader,
		"bundleconfig":      KindBundleConfig,
		"LOADER_GUI":        KindLoader,
		"IMPORTSETTING_GUI": KindImportSetting,
		"WARP_OUT":          KindWarpOut,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseKind("Bundlizer"); err == nil {
		t.Error("expected an error for an unknown kind")
	}
	if Kind("LOADER_GUI").Valid() || !KindLoader.Valid() {
		t.Error("Valid should only accept canonical kinds")
	}
}

func TestPerTarget(t *testing.T) {
	var p PerTarget[string]
	if p.Get("ios") != "" {
		t.Fatal("nil map should yield zero")
	}
	p = p.Set("", "Assets/Common").Set("ios", "Assets/iOS")
	if p.Get("ios") != "Assets/iOS" || p.Get("android") != "Assets/Common" {
		t.Fatalf("unexpected lookups in %v", p)
	}
	if !p.Has("ios") || p.Has("android") {
		t.Fatal("unexpected Has result")
	}
	if diff := cmp.Diff([]string{"default", "ios"}, p.Targets()); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}
	c := p.Clone()
	c.Set("ios", "changed")
	if p.Get("ios") != "Assets/iOS" {
		t.Fatal("clone shares storage")
	}
}

func TestConnect(t *testing.T) {
	g := New()
	loader := addNode(t, g, "loader", KindLoader)
	filter := addNode(t, g, "filter", KindFilter)

	c := mustConnect(t, g, loader, filter)
	if c.Label != DefaultOutputLabel {
		t.Fatalf("expected label from output point, got %q", c.Label)
	}
	if _, err := g.Connect(loader.ID, loader.Outputs[0].ID, filter.ID, filter.Inputs[0].ID, ""); !errors.IsCode(err, errors.ErrCodeConflict) {
		t.Fatalf("expected a conflict for a second connection with the same label, got %v", err)
	}
	if _, err := g.Connect(filter.ID, "nope", loader.ID, "nope", ""); !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := g.AddNode(loader); !errors.IsCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected duplicate node error, got %v", err)
	}

	if !g.Disconnect(c.ID) || g.Disconnect(c.ID) {
		t.Fatal("disconnect should succeed exactly once")
	}
}

func TestSubGraphClosure(t *testing.T) {
	g := New()
	l1 := addNode(t, g, "l1", KindLoader)
	l2 := addNode(t, g, "l2", KindLoader)
	grp := addNode(t, g, "grp", KindGrouping)
	bc := addNode(t, g, "bc", KindBundleConfig)
	other := addNode(t, g, "other", KindGrouping)

	mustConnect(t, g, l1, grp)
	mustConnect(t, g, grp, bc)
	mustConnect(t, g, l2, other)

	sub := g.SubGraph(l1.ID)
	if diff := cmp.Diff([]string{"l1", "grp", "bc"}, ids(sub.Nodes)); diff != "" {
		t.Fatalf("subgraph nodes mismatch (-want +got):\n%s", diff)
	}
	if len(sub.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(sub.Connections))
	}
	for _, c := range sub.Connections {
		if sub.FindNode(c.FromNodeID) == nil || sub.FindNode(c.ToNodeID) == nil {
			t.Fatalf("connection %s leaves the subgraph", c.ID)
		}
	}

	if len(g.SubGraph("missing").Nodes) != 0 {
		t.Fatal("unknown roots should yield an empty graph")
	}
}

func TestCollectAllLeafNodes(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	e := addNode(t, g, "e", KindExporter)
	mustConnect(t, g, l, f)
	mustConnect(t, g, f, e)
	addNode(t, g, "lonely", KindLoader)

	if diff := cmp.Diff([]string{"e", "lonely"}, ids(g.CollectAllLeafNodes())); diff != "" {
		t.Fatalf("leaves mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"l", "lonely"}, ids(g.Loaders())); diff != "" {
		t.Fatalf("loaders mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveNodeDropsConnections(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	mustConnect(t, g, l, f)

	if !g.RemoveNode("f") {
		t.Fatal("expected removal")
	}
	if len(g.Connections) != 0 {
		t.Fatal("connections to a removed node must go too")
	}
	if g.RemoveNode("f") {
		t.Fatal("second removal should report false")
	}
}

func TestValidatePrunes(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	good := mustConnect(t, g, l, f)

	g.Connections = append(g.Connections,
		&Connection{ID: "dangling", FromNodeID: "l", FromPointID: l.Outputs[0].ID, ToNodeID: "ghost", ToPointID: "p"},
		&Connection{ID: "wrongpoint", FromNodeID: "l", FromPointID: "nope", ToNodeID: "f", ToPointID: f.Inputs[0].ID},
		good.Clone(),
	)
	bad := NewNode("bad", KindLoader, 0, 0)
	bad.AddInputPoint("in")
	g.Nodes = append(g.Nodes, bad, f.Clone())

	r := g.Validate()
	if !r.Changed {
		t.Fatal("expected a change")
	}
	if diff := cmp.Diff([]string{bad.ID, "f"}, r.RemovedNodes); diff != "" {
		t.Fatalf("removed nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dangling", "wrongpoint", good.ID}, r.RemovedConnections); diff != "" {
		t.Fatalf("removed connections mismatch (-want +got):\n%s", diff)
	}
	if len(g.Nodes) != 2 || len(g.Connections) != 1 {
		t.Fatalf("expected 2 nodes and 1 connection, got %d and %d", len(g.Nodes), len(g.Connections))
	}

	if again := g.Validate(); again.Changed {
		t.Fatalf("validate should be idempotent, got %+v", again)
	}
}

func TestValidateBreaksCycles(t *testing.T) {
	g := New()
	a := addNode(t, g, "a", KindGrouping)
	b := addNode(t, g, "b", KindGrouping)
	c := addNode(t, g, "c", KindGrouping)
	d := addNode(t, g, "d", KindGrouping)
	e := addNode(t, g, "e", KindGrouping)
	mustConnect(t, g, a, b)
	mustConnect(t, g, b, c)
	back := mustConnect(t, g, c, a)
	self := mustConnect(t, g, d, d)
	mustConnect(t, g, c, e)

	r := g.Validate()
	if !r.Changed {
		t.Fatal("expected a change")
	}
	if diff := cmp.Diff([]string{back.ID, self.ID}, r.RemovedConnections); diff != "" {
		t.Fatalf("removed connections mismatch (-want +got):\n%s", diff)
	}
	if len(g.Connections) != 3 {
		t.Fatalf("expected the 3 acyclic connections to stay, got %d", len(g.Connections))
	}
	if g.cycleConnections() != nil {
		t.Fatal("graph should be acyclic after validate")
	}
	if again := g.Validate(); again.Changed {
		t.Fatalf("validate should be idempotent, got %+v", again)
	}
}

func TestValidateDropsDuplicateLabelOnInput(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	m := addNode(t, g, "m", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	first := mustConnect(t, g, l, f)

	g.Connections = append(g.Connections,
		&Connection{ID: "dup", Label: first.Label, FromNodeID: m.ID, FromPointID: m.Outputs[0].ID, ToNodeID: f.ID, ToPointID: f.Inputs[0].ID},
		&Connection{ID: "other", Label: "other", FromNodeID: m.ID, FromPointID: m.Outputs[0].ID, ToNodeID: f.ID, ToPointID: f.Inputs[0].ID},
	)

	r := g.Validate()
	if diff := cmp.Diff([]string{"dup"}, r.RemovedConnections); diff != "" {
		t.Fatalf("removed connections mismatch (-want +got):\n%s", diff)
	}
	got := make([]string, 0, len(g.Connections))
	for _, c := range g.Connections {
		got = append(got, c.ID)
	}
	if diff := cmp.Diff([]string{first.ID, "other"}, got); diff != "" {
		t.Fatalf("kept connections mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRepairsBundleOptions(t *testing.T) {
	g := New()
	bb := addNode(t, g, "Build", KindBundleBuilder)
	cfg, _ := ConfigAs[*BundleBuilderConfig](bb)
	cfg.Options.Set(DefaultTarget, OptionDisableWriteTypeTree|OptionIgnoreTypeTreeChanges|OptionStrictMode)
	cfg.Options.Set("ios", OptionDisableWriteTypeTree)

	r := g.Validate()
	if !r.Changed || len(r.Warnings) != 1 {
		t.Fatalf("expected one repair warning, got %+v", r)
	}
	if got := cfg.Options.Get(DefaultTarget); got != OptionStrictMode {
		t.Fatalf("expected only StrictMode left, got %s", got)
	}
	if got := cfg.Options.Get("ios"); got != OptionDisableWriteTypeTree {
		t.Fatalf("non-conflicting target should be untouched, got %s", got)
	}
	if len(r.RemovedNodes) != 0 {
		t.Fatal("a repaired node is not removed")
	}
}

func TestValidateDropsOrphanWarp(t *testing.T) {
	g := New()
	in, _, _, err := g.NewWarpPair("warp", 0, 0)
	if err != nil {
		t.Fatalf("NewWarpPair: %v", err)
	}
	if r := g.Validate(); r.Changed {
		t.Fatalf("an intact pair should validate, got %+v", r)
	}

	g.Nodes = g.Nodes[:1]
	r := g.Validate()
	if diff := cmp.Diff([]string{in.ID}, r.RemovedNodes); diff != "" {
		t.Fatalf("expected the orphan warp in to go (-want +got):\n%s", diff)
	}
	if len(r.RemovedConnections) != 1 {
		t.Fatalf("expected the hidden connection to go, got %v", r.RemovedConnections)
	}
}

func TestBestLoader(t *testing.T) {
	idx := &LoaderIndex{Entries: []LoaderEntry{
		{ID: "root", Path: Uniform("Assets")},
		{ID: "chars", Path: Uniform("Assets/Characters")},
		{ID: "heroes", Path: PerTarget[string]{DefaultTarget: "Assets/Characters/Heroes", "ios": ""}},
		{ID: "tie", Path: Uniform("Assets/Characters")},
		{ID: "empty", Path: Uniform("")},
	}}

	tests := []struct {
		path, target, want string
	}{
		{"Assets/Characters/Heroes/knight.png", DefaultTarget, "heroes"},
		{"Assets/Characters/Heroes/knight.png", "ios", "chars"},
		{"Assets/Characters/orc.png", DefaultTarget, "chars"},
		{"Assets/ui/icon.png", DefaultTarget, "root"},
	}
	for _, tc := range tests {
		got, ok := idx.Best(tc.path, tc.target)
		if !ok || got.ID != tc.want {
			t.Errorf("Best(%q, %q) = %q, %v; want %q", tc.path, tc.target, got.ID, ok, tc.want)
		}
	}
	if _, ok := idx.Best("Packages/x.png", DefaultTarget); ok {
		t.Error("expected no owner outside every load path")
	}
}

func TestIndexLoaders(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	lc, _ := ConfigAs[*LoaderConfig](l)
	lc.LoadPath.Set(DefaultTarget, "Assets/Sprites")
	lc.PreProcess = true
	addNode(t, g, "f", KindGrouping)

	idx := IndexLoaders(g)
	if len(idx.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(idx.Entries))
	}
	e, ok := idx.Find("l")
	if !ok || !e.PreProcess || e.Path.Get("ios") != "Assets/Sprites" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestFilterConditionHashSeparatesFields(t *testing.T) {
	tests := []struct {
		name string
		a, b FilterCondition
	}{
		{
			name: "keyword and type boundary",
			a:    FilterCondition{Keyword: "a", KeyType: asset.Type("bc")},
			b:    FilterCondition{Keyword: "ab", KeyType: asset.Type("c")},
		},
		{
			name: "empty type",
			a:    FilterCondition{Keyword: "a", KeyType: asset.Type("b"), Exclude: true},
			b:    FilterCondition{Keyword: "ab", Exclude: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Hash() == tt.b.Hash() {
				t.Fatalf("expected distinct hashes, both are %q", tt.a.Hash())
			}
			fc := &FilterConfig{Conditions: []FilterCondition{tt.a, tt.b}}
			if d, dup := fc.Duplicate(); dup {
				t.Fatalf("expected no duplicate, got %+v", d)
			}
		})
	}
}

func TestFilterConditions(t *testing.T) {
	n := NewNode("Filter", KindFilter, 0, 0)
	png, err := n.AddFilterCondition("images", "*.png", "", false)
	if err != nil {
		t.Fatalf("AddFilterCondition: %v", err)
	}
	if png.KeyType != asset.TypeAny {
		t.Fatalf("expected default key type Any, got %s", png.KeyType)
	}
	if p := n.FindOutputPoint(png.PointID); p == nil || p.Label != "*.png" {
		t.Fatal("condition should own an output point labelled with the keyword")
	}

	fc, _ := ConfigAs[*FilterConfig](n)
	if _, dup := fc.Duplicate(); dup {
		t.Fatal("no duplicate yet")
	}
	if _, err := n.AddFilterCondition("again", "*.png", asset.TypeAny, false); err != nil {
		t.Fatal(err)
	}
	d, dup := fc.Duplicate()
	if !dup || d.Name != "again" {
		t.Fatalf("expected duplicate condition, got %+v %v", d, dup)
	}
	if _, err := n.AddFilterCondition("not png", "*.png", asset.TypeAny, true); err != nil {
		t.Fatal(err)
	}
	if len(fc.Conditions) != 3 {
		t.Fatalf("expected 3 conditions, got %d", len(fc.Conditions))
	}

	if err := n.RemoveFilterCondition(png.PointID); err != nil {
		t.Fatalf("RemoveFilterCondition: %v", err)
	}
	if n.FindOutputPoint(png.PointID) != nil || len(fc.Conditions) != 2 {
		t.Fatal("condition and point should both be gone")
	}
	if err := n.RemoveFilterCondition(png.PointID); err == nil {
		t.Fatal("expected an error removing twice")
	}

	grouping := NewNode("g", KindGrouping, 0, 0)
	if _, err := grouping.AddFilterCondition("x", "y", "", false); err == nil {
		t.Fatal("expected an error on a non-filter node")
	}
}

func TestVariants(t *testing.T) {
	n := NewNode("Config", KindBundleConfig, 0, 0)
	v, err := n.AddVariant("hd")
	if err != nil {
		t.Fatalf("AddVariant: %v", err)
	}
	if len(n.Inputs) != 2 || n.FindInputPoint(v.PointID).Label != "hd" {
		t.Fatal("variant should add a labelled input point")
	}
	bc, _ := ConfigAs[*BundleConfigSettings](n)
	if got, ok := bc.VariantForPoint(v.PointID); !ok || got.Name != "hd" {
		t.Fatal("VariantForPoint should find the variant")
	}
	if err := n.RemoveVariant(v.PointID); err != nil {
		t.Fatalf("RemoveVariant: %v", err)
	}
	if len(n.Inputs) != 1 || len(bc.Variants) != 0 {
		t.Fatal("variant and point should both be gone")
	}
}

func TestDuplicate(t *testing.T) {
	f := NewNode("Filter", KindFilter, 10, 20)
	f.AddFilterCondition("png", "*.png", asset.TypeTexture, false)

	dup := f.Duplicate()
	if dup.ID == f.ID {
		t.Fatal("duplicate needs a new id")
	}
	fc, _ := ConfigAs[*FilterConfig](dup)
	if len(fc.Conditions) != 1 || dup.FindOutputPoint(fc.Conditions[0].PointID) == nil {
		t.Fatal("duplicated conditions must point at the duplicate's own points")
	}
	if fc.Conditions[0].PointID == f.Outputs[0].ID {
		t.Fatal("point ids must be fresh")
	}

	l := NewNode("Load", KindLoader, 0, 0)
	lc, _ := ConfigAs[*LoaderConfig](l)
	lc.LoadPath.Set(DefaultTarget, "Assets/A")
	dl := l.Duplicate()
	dlc, _ := ConfigAs[*LoaderConfig](dl)
	dlc.LoadPath.Set(DefaultTarget, "Assets/B")
	if lc.LoadPath.Get(DefaultTarget) != "Assets/A" {
		t.Fatal("duplicate must not share configuration")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	mustConnect(t, g, l, f)

	cp := g.Clone()
	cp.Nodes[0].Name = "renamed"
	cp.Nodes[0].Outputs[0].Label = "changed"
	gc, _ := ConfigAs[*GroupingConfig](cp.Nodes[1])
	gc.Keyword.Set(DefaultTarget, "x*")
	cp.Connections[0].Label = "other"

	orig, _ := ConfigAs[*GroupingConfig](f)
	if l.Name != "l" || l.Outputs[0].Label != DefaultOutputLabel || orig.Keyword.Get(DefaultTarget) != DefaultGroupingKeyword || g.Connections[0].Label != DefaultOutputLabel {
		t.Fatal("clone shares state with the original")
	}
}

func TestDigest(t *testing.T) {
	g := New()
	l := addNode(t, g, "l", KindLoader)
	f := addNode(t, g, "f", KindGrouping)
	mustConnect(t, g, l, f)

	d1 := g.Digest()
	if d1 != g.Clone().Digest() {
		t.Fatal("digest should be deterministic")
	}

	l.X, l.Y, l.Name = 500, 500, "moved"
	if g.Digest() != d1 {
		t.Fatal("position and name must not affect the digest")
	}

	lc, _ := ConfigAs[*LoaderConfig](l)
	lc.LoadPath.Set("ios", "Assets/iOS")
	if g.Digest() == d1 {
		t.Fatal("configuration changes must affect the digest")
	}
}

func TestBundleOptions(t *testing.T) {
	o := OptionUncompressed | OptionStrictMode
	if diff := cmp.Diff([]string{"UncompressedAssetBundle", "StrictMode"}, o.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if BundleOptions(0).String() != "None" {
		t.Fatal("zero options should print None")
	}
	if OptionDryRunBuild != 1024 || OptionIgnoreTypeTreeChanges != 64 {
		t.Fatal("flag values must match the stored bit layout")
	}
}

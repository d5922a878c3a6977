// Package graphtest provides test helpers for code that builds and executes
// asset graphs.
//
// It includes a fluent graph builder and a recording operation that can
// stand in for every node kind.
//
// Example:
//
//	func TestPerform(t *testing.T) {
//	    b := graphtest.NewBuilder().
//	        AddNode("load", graph.KindLoader).
//	        AddNode("filter", graph.KindWarpIn).
//	        Connect("load", "filter")
//	    g := b.MustBuild(t)
//
//	    rec := graphtest.NewRecorder().Emit("load", asset.Single(a))
//	    reg := graphtest.Registry(rec)
//	    // ... execute and assert on rec.Visits(operation.PhaseRun)
//	}
package graphtest

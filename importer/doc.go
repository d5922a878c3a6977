// Package importer reruns the part of an asset graph that depends on newly
// imported files.
//
// An import resolves the Loader that owns each file, takes the subgraph
// reachable from that Loader and performs it with the Loader seeded with
// just the imported files. Only Loaders flagged for preprocessing take part.
//
//	imp := importer.New(st, ctrl, importer.WithTarget("ios"))
//	reports, err := imp.ImportBatch(ctx, []string{"Assets/tex/a.png"})
//
// Watcher feeds ImportBatch from filesystem events, batching bursts of
// changes until a quiet period passes.
package importer

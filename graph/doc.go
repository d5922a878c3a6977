// Package graph is the data model of an asset pipeline: nodes with typed
// configuration, the connection points on them and the connections between
// points.
//
// A Graph is plain data. Execution lives in the dag and controller
// packages; persistence lives in store. Graph.Validate prunes dangling
// entities and repairs settings that cannot be honoured, reporting what it
// changed so the caller can re-persist the document.
package graph

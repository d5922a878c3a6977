// Package dag schedules and executes asset graphs.
//
// Plan derives a deterministic topological order from a graph.Graph once;
// Engine.Execute walks that order for one phase, handing each node the
// groups its incoming connections delivered and routing what it emits to
// the downstream mailboxes.
//
// The same Schedule is executed for Setup and for Run. Steps can be
// decorated with WithTracing, WithMetrics and WithLogging.
package dag

// Package store persists graphs and the loader registry.
//
// Graph documents hold a lastModified stamp, the node records with their
// kind-specific settings, and the connection records. The codec follows the
// file extension: ".json" documents use goccy/go-json and ".yaml"/".yml"
// documents use YAML, both with the same record schema. Per-target values
// are objects keyed by target name, with "default" as the fallback.
//
// LoadGraph heals what it reads: nodes and connections that no longer fit
// the graph are pruned, conflicting settings are repaired, and the healed
// graph is written back before it is returned.
//
// Writes go through a temporary file and a rename, so a crash never leaves
// a half-written document.
package store

// Package asset models the files that flow through an asset graph.
//
// An Asset is an immutable reference to one file: its absolute path, its
// project-relative path, the type inferred from its extension and a content
// fingerprint. Changing an asset yields a new value.
//
// A Group is what travels on one connection: assets bucketed by group key,
// with DefaultKey as the implicit bucket before any grouping happens.
package asset

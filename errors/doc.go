// Package errors provides the structured error types used across assetgraph.
//
// AppError carries a machine-readable code, an HTTP status for the API
// surface, and optional details. NodeError is the typed error a node
// operation raises; it records the offending node and the phase it failed in
// so the controller can aggregate failures without losing their origin.
package errors

// Package util holds small generic helpers shared by the assetgraph packages:
// deterministic map iteration, slice helpers, size parsing and id generation.
package util

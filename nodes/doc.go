// Package nodes implements the built-in operation of every node kind and
// the built-in Validator, Modifier and PrefabBuilder plugins.
//
// Register wires the operations into an operation.Registry; RegisterPlugins
// adds the built-in plugin classes to an operation.Plugins set.
package nodes

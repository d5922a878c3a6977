// Package operation defines the contract between the execution controller
// and the code behind each node kind.
//
// Every kind has an Operation with two phases. Setup is a dry run: it
// validates configuration and input types and emits the shape of what Run
// would produce, without touching the project. Run does the work. Both
// receive a Request describing the node, its delivered inputs and its
// outgoing connections, and report results through an Emit callback, once
// per outgoing connection.
//
// Plugin-backed kinds (Modifier, Validator, PrefabBuilder) resolve their
// user code by class name through a Catalog of factories.
package operation

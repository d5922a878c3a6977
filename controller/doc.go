// Package controller drives a graph through its Setup and Run passes.
//
// Perform plans the graph once, runs Setup over every node, and, when the
// build is an actual run and Setup collected no errors, runs Run with the
// same ordering. Node errors never escape a node: they are normalized to
// *errors.NodeError, reported through the OnError callback, and returned in
// visit order on the Outcome.
//
// A Session remembers which graph digests passed Setup and what each node
// received on its last Run, so a repeated actual run skips Setup and nodes
// can tell that their inputs did not change.
//
// Example:
//
//	c := controller.New(nodes.NewRegistry(), env, controller.WithLogger(log))
//	out, err := c.Perform(ctx, g, controller.Options{Target: "ios", ActualRun: true})
//	if err == nil && out.OK() {
//	    _, err = c.Postprocess(ctx, out, true)
//	}
package controller

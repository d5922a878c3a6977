package controller

import (
	"context"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/observability"
	"github.com/kbukum/assetgraph/operation"
)

// Postprocess lets artifact-producing nodes finalize their outputs after a
// Run pass without errors. Each Postprocessor receives the inputs its node
// got during that pass, in visit order. Node errors are returned and do not
// stop the remaining nodes.
func (c *Controller) Postprocess(ctx context.Context, out *Outcome, actualRun bool) ([]*errors.NodeError, error) {
	if out == nil || out.Run == nil || !out.OK() {
		return nil, errors.Conflict("Postprocess requires a Run pass without errors.")
	}
	c.perform.Lock()
	defer c.perform.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanPostprocess)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTarget, out.Target)

	env := c.projectEnv(out.Graph, out.Seeds)
	var errs []*errors.NodeError
	for _, nr := range out.Run.Nodes {
		if err := ctx.Err(); err != nil {
			return errs, errors.Aborted(string(operation.PhasePostprocess), err)
		}
		n := out.Graph.FindNode(nr.NodeID)
		if n == nil {
			continue
		}
		op, ok := c.registry.Get(n.Kind())
		if !ok {
			continue
		}
		pp, ok := op.(operation.Postprocessor)
		if !ok {
			continue
		}

		req := &operation.Request{
			Phase:   operation.PhasePostprocess,
			Target:  out.Target,
			Node:    n,
			Inputs:  nr.Inputs,
			Outputs: out.Schedule.Outgoing(n.ID),
			Env:     env,
			Log:     c.nodeLogger(n, out.Target),
		}
		if err := guard(req, func() error { return pp.Postprocess(ctx, req, actualRun) }); err != nil {
			nodeErr := normalize(n, operation.PhasePostprocess, err)
			req.Logger().Error("postprocess failed", map[string]interface{}{logger.FieldError: nodeErr.Error()})
			errs = append(errs, nodeErr)
		}
	}
	if len(errs) > 0 {
		observability.SetSpanError(ctx, errs[0])
	}
	return errs, nil
}

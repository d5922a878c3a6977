package controller

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/kbukum/assetgraph/dag"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/logger"
	"github.com/kbukum/assetgraph/operation"
)

// nodeStep dispatches a visit to the operation registered for the node kind
// and turns whatever goes wrong into a *errors.NodeError.
type nodeStep struct {
	controller *Controller
	target     string
	env        *operation.Env
	key        string
	onError    func(*errors.NodeError)
}

func (s *nodeStep) Visit(ctx context.Context, v *dag.Visit, emit operation.Emit) error {
	n := v.Node
	req := &operation.Request{
		Phase:   v.Phase,
		Target:  s.target,
		Node:    n,
		Inputs:  v.Inputs,
		Outputs: v.Outputs,
		Env:     s.env,
		Log:     s.controller.nodeLogger(n, s.target),
	}

	var digest uint64
	if v.Phase == operation.PhaseRun {
		digest = inputsDigest(v.Inputs)
		req.InputsUnchanged = s.controller.session.unchanged(s.key, n.ID, digest)
	}

	err := s.invoke(ctx, req, emit)
	if err != nil {
		nodeErr := normalize(n, v.Phase, err)
		if v.Phase == operation.PhaseRun {
			s.controller.session.forgetInputs(s.key, n.ID)
		}
		s.onError(nodeErr)
		return nodeErr
	}
	if v.Phase == operation.PhaseRun {
		s.controller.session.rememberInputs(s.key, n.ID, digest)
	}
	return nil
}

func (s *nodeStep) invoke(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	op, ok := s.controller.registry.Get(req.Node.Kind())
	if !ok {
		return errors.NodeConfig(req.Node.ID, "No operation is registered for %s nodes.", req.Node.Kind())
	}
	return guard(req, func() error {
		if req.Phase == operation.PhaseRun {
			return op.Run(ctx, req, emit)
		}
		return op.Setup(ctx, req, emit)
	})
}

// guard runs fn, turning a panic into a runtime error of the node.
func guard(req *operation.Request, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			req.Logger().Error("node operation panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			err = errors.NodeRuntime(req.Node.ID, "Unexpected failure: %v", r)
		}
	}()
	return fn()
}

func (c *Controller) nodeLogger(n *graph.Node, target string) *logger.Logger {
	return c.log.WithFields(map[string]interface{}{
		logger.FieldNodeID:   n.ID,
		logger.FieldNodeName: n.Name,
		logger.FieldNodeKind: string(n.Kind()),
		logger.FieldTarget:   target,
	})
}

// normalize returns err as a NodeError naming n and phase. Errors that are
// not node errors become configuration errors in Setup and runtime errors
// otherwise.
func normalize(n *graph.Node, phase operation.Phase, err error) *errors.NodeError {
	nodeErr, ok := errors.AsNodeError(err)
	if !ok {
		if phase == operation.PhaseSetup {
			nodeErr = errors.NodeConfig(n.ID, "%v", err)
		} else {
			nodeErr = errors.NodeRuntime(n.ID, "%v", err)
		}
	}
	if nodeErr.NodeID == "" {
		nodeErr.NodeID = n.ID
	}
	if nodeErr.NodeName == "" {
		nodeErr.NodeName = n.Name
	}
	if nodeErr.Phase == "" {
		nodeErr.Phase = string(phase)
	}
	return nodeErr
}

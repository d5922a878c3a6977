package nodes

import (
	"context"
	"strings"

	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/operation"
)

const validatorLabel = "Validator"

// Validator checks every incoming asset with its configured validator class
// and passes the group through unchanged.
type Validator struct{}

func (v Validator) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	incoming, err := checkHomogeneous(req, validatorLabel)
	if err != nil {
		return err
	}
	p, err := createPlugin(req, plugins(req).Validators, validatorLabel)
	if err != nil {
		return err
	}
	if err := checkTargetType(req, validatorLabel, p.TargetType(), incoming); err != nil {
		return err
	}
	passThrough(req, emit, nil)
	return nil
}

func (v Validator) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	p, err := createPlugin(req, plugins(req).Validators, validatorLabel)
	if err != nil {
		return err
	}

	in := req.Merged()
	var failures []string
	for _, k := range in.Keys() {
		for i, a := range in[k] {
			if !p.ShouldValidate(a) {
				continue
			}
			ok, err := p.Validate(ctx, a)
			if err != nil {
				return errors.NodeRuntime(req.Node.ID, "failed to validate %s", a.Path()).WithCause(err)
			}
			if ok {
				continue
			}
			recovered, err := p.TryToRecover(ctx, a)
			if err != nil {
				return errors.NodeRuntime(req.Node.ID, "failed to recover %s", a.Path()).WithCause(err)
			}
			if !recovered {
				failures = append(failures, p.ValidationFailed(a))
				continue
			}
			if a.Fingerprint() != "" {
				if refreshed, err := a.Refresh(); err == nil {
					in[k][i] = refreshed
				}
			}
		}
	}
	if len(failures) > 0 {
		return errors.NodeRuntime(req.Node.ID, "%s", strings.Join(failures, "\n"))
	}
	operation.EmitAll(req, emit, in, nil)
	return nil
}

package nodes

import (
	"context"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/operation"
)

const modifierLabel = "Modifier"

// Modifier applies its configured modifier class to every incoming asset
// that differs from the intended configuration.
type Modifier struct{}

func (m Modifier) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	incoming, err := checkHomogeneous(req, modifierLabel)
	if err != nil {
		return err
	}
	p, err := createPlugin(req, plugins(req).Modifiers, modifierLabel)
	if err != nil {
		return err
	}
	if err := checkTargetType(req, modifierLabel, p.TargetType(), incoming); err != nil {
		return err
	}
	passThrough(req, emit, nil)
	return nil
}

func (m Modifier) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	p, err := createPlugin(req, plugins(req).Modifiers, modifierLabel)
	if err != nil {
		return err
	}

	modified := 0
	out, err := mapAssets(req.Merged(), func(a asset.Asset) (asset.Asset, error) {
		if !a.Type().Matches(p.TargetType()) || !p.IsModified(a) {
			return a, nil
		}
		changed, err := p.Modify(ctx, a)
		if err != nil {
			return a, errors.NodeRuntime(req.Node.ID, "failed to modify %s", a.Path()).WithCause(err)
		}
		modified++
		return changed, nil
	})
	if err != nil {
		return err
	}

	req.Logger().Debug("assets modified", map[string]interface{}{"modified": modified})
	operation.EmitAll(req, emit, out, req.Cached())
	return nil
}

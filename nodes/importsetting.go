package nodes

import (
	"context"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/operation"
)

// AttrImportSetting records the id of the ImportSetting node that applied
// its settings to an asset.
const AttrImportSetting = "importSetting"

// ImportSetting applies the settings stored under its node id to a group
// of assets of a single type.
type ImportSetting struct{}

func (ImportSetting) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	if _, err := checkHomogeneous(req, "ImportSetting"); err != nil {
		return err
	}
	passThrough(req, emit, req.Cached())
	return nil
}

func (ImportSetting) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	out, _ := mapAssets(req.Merged(), func(a asset.Asset) (asset.Asset, error) {
		return a.WithAttr(AttrImportSetting, req.Node.ID), nil
	})
	operation.EmitAll(req, emit, out, req.Cached())
	return nil
}

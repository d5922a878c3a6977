package nodes

import (
	"context"

	"github.com/kbukum/assetgraph/operation"
)

// Warp passes data from a WarpIn to its WarpOut unchanged.
type Warp struct{}

func (Warp) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	passThrough(req, emit, req.Cached())
	return nil
}

func (Warp) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	passThrough(req, emit, req.Cached())
	return nil
}

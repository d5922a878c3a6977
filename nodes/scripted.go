package nodes

import (
	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// createPlugin instantiates the plugin class configured on the node for the
// request target. what names the kind in error messages.
func createPlugin[T any](req *operation.Request, catalog *operation.Catalog[T], what string) (T, error) {
	var zero T
	sc, ok := req.Node.Config.(graph.Scripted)
	if !ok {
		return zero, errors.NodeConfig(req.Node.ID, "node carries %T configuration, expected a %s", req.Node.Config, what)
	}
	script := sc.Script()
	data := script.InstanceData.Get(req.Target)
	if script.ClassName == "" || data == "" {
		return zero, errors.NotConfigured(req.Node.ID, what)
	}
	if catalog == nil {
		return zero, errors.NodeConfig(req.Node.ID, "Failed to create %s from settings. Please fix settings.", what)
	}
	p, err := catalog.Create(script.ClassName, data)
	if err != nil {
		return zero, errors.NodeConfig(req.Node.ID, "Failed to create %s from settings. Please fix settings.", what).WithCause(err)
	}
	return p, nil
}

// checkHomogeneous rejects a mix of incoming asset types and returns the
// shared type.
func checkHomogeneous(req *operation.Request, what string) (asset.Type, error) {
	expected, odd, found := heterogeneous(req.Merged().Flatten())
	if found {
		return "", errors.TypeMismatch(req.Node.ID, "%s expect %s, but different type of incoming asset is found(%s %s)",
			what, expected, odd.Type(), odd.FileName())
	}
	return expected, nil
}

// checkTargetType rejects a plugin whose target type differs from the
// incoming type. Without incoming assets there is nothing to compare.
func checkTargetType(req *operation.Request, what string, target, incoming asset.Type) error {
	if incoming == "" || target == "" || target == asset.TypeAny || target == incoming {
		return nil
	}
	return errors.TypeMismatch(req.Node.ID, "Incoming asset type does not match with this %s (Expected type:%s, Incoming type:%s).",
		what, target, incoming)
}

func plugins(req *operation.Request) *operation.Plugins {
	if req.Env == nil || req.Env.Plugins == nil {
		return operation.NewPlugins()
	}
	return req.Env.Plugins
}

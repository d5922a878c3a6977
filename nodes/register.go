package nodes

import (
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// Register adds the built-in operation of every node kind to reg.
func Register(reg *operation.Registry) {
	reg.Register(graph.KindLoader, Loader{})
	reg.Register(graph.KindFilter, Filter{})
	reg.Register(graph.KindImportSetting, ImportSetting{})
	reg.Register(graph.KindModifier, Modifier{})
	reg.Register(graph.KindGrouping, Grouping{})
	reg.Register(graph.KindPrefabBuilder, PrefabBuilder{})
	reg.Register(graph.KindBundleConfig, BundleConfig{})
	reg.Register(graph.KindBundleBuilder, BundleBuilder{})
	reg.Register(graph.KindExporter, Exporter{})
	reg.Register(graph.KindValidator, Validator{})
	reg.Register(graph.KindWarpIn, Warp{})
	reg.Register(graph.KindWarpOut, Warp{})
}

// RegisterPlugins adds the built-in plugin classes to p.
func RegisterPlugins(p *operation.Plugins) {
	p.Validators.Register(MaxFileSizeClass, NewMaxFileSize)
	p.Modifiers.Register(TagClass, NewTag)
	p.PrefabBuilders.Register(ManifestClass, NewManifest)
}

// NewRegistry returns a registry holding every built-in operation.
func NewRegistry() *operation.Registry {
	reg := operation.NewRegistry()
	Register(reg)
	return reg
}

// NewPlugins returns plugin catalogs holding the built-in classes.
func NewPlugins() *operation.Plugins {
	p := operation.NewPlugins()
	RegisterPlugins(p)
	return p
}

package operation

import (
	"context"

	"github.com/kbukum/assetgraph/asset"
)

// Validator checks assets passing through a Validator node.
type Validator interface {
	// TargetType is the asset type the validator understands; TypeAny
	// accepts every type.
	TargetType() asset.Type
	// ShouldValidate returns false for assets that are exempt.
	ShouldValidate(a asset.Asset) bool
	Validate(ctx context.Context, a asset.Asset) (bool, error)
	// TryToRecover attempts to fix a failed asset and reports success.
	TryToRecover(ctx context.Context, a asset.Asset) (bool, error)
	// ValidationFailed returns the message reported for an unrecoverable asset.
	ValidationFailed(a asset.Asset) string
	Serialize() (string, error)
}

// Modifier rewrites assets passing through a Modifier node.
type Modifier interface {
	TargetType() asset.Type
	// IsModified reports whether a differs from the intended configuration.
	IsModified(a asset.Asset) bool
	// Modify applies the configuration and returns the refreshed asset.
	Modify(ctx context.Context, a asset.Asset) (asset.Asset, error)
	Serialize() (string, error)
}

// PrefabBuilder turns a group of assets into one generated artifact.
type PrefabBuilder interface {
	// CanCreate returns the artifact name for the group, or "" to skip it.
	CanCreate(groupKey string, assets []asset.Asset) string
	// Create writes the artifact into dir and returns the path it wrote.
	Create(ctx context.Context, name string, assets []asset.Asset, dir string) (string, error)
	Serialize() (string, error)
}

// Plugins holds the catalogs of the plugin-backed kinds.
type Plugins struct {
	Validators     *Catalog[Validator]
	Modifiers      *Catalog[Modifier]
	PrefabBuilders *Catalog[PrefabBuilder]
}

// NewPlugins returns empty catalogs.
func NewPlugins() *Plugins {
	return &Plugins{
		Validators:     NewCatalog[Validator](),
		Modifiers:      NewCatalog[Modifier](),
		PrefabBuilders: NewCatalog[PrefabBuilder](),
	}
}

package nodes

import (
	"context"
	"strings"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/errors"
	"github.com/kbukum/assetgraph/graph"
	"github.com/kbukum/assetgraph/operation"
)

// Attributes set on assets by BundleConfig when SetBundleNameAndVariant is on.
const (
	AttrBundleName    = "bundleName"
	AttrBundleVariant = "bundleVariant"
)

// BundleConfig names bundles after the groups it receives. Output groups are
// keyed by bundle name, "name" or "name.variant".
type BundleConfig struct{}

func (b BundleConfig) Setup(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return b.configure(req, emit)
}

func (b BundleConfig) Run(ctx context.Context, req *operation.Request, emit operation.Emit) error {
	return b.configure(req, emit)
}

func (BundleConfig) configure(req *operation.Request, emit operation.Emit) error {
	cfg, err := configOf[*graph.BundleConfigSettings](req)
	if err != nil {
		return err
	}
	template := cfg.NameTemplate.Get(req.Target)
	if strings.Count(template, "*") != 1 {
		return errors.NodeConfig(req.Node.ID, "Bundle name template must contain exactly one '*': %s", template)
	}

	out := asset.Group{}
	add := func(name, variant string, assets []asset.Asset) {
		key := name
		if variant != "" {
			key = name + "." + variant
		}
		for _, a := range assets {
			if cfg.SetBundleNameAndVariant {
				a = a.WithAttr(AttrBundleName, name)
				if variant != "" {
					a = a.WithAttr(AttrBundleVariant, variant)
				}
			}
			out[key] = append(out[key], a)
		}
	}

	for _, in := range req.Inputs {
		if !in.Delivered {
			continue
		}
		variant, isVariant := cfg.VariantForPoint(in.Connection.ToPointID)
		for _, k := range in.Group.Keys() {
			switch {
			case isVariant:
				add(bundleName(template, k), strings.ToLower(variant.Name), in.Group[k])
			case cfg.UseGroupAsVariants:
				add(bundleName(template, ""), strings.ToLower(k), in.Group[k])
			default:
				add(bundleName(template, k), "", in.Group[k])
			}
		}
	}
	operation.EmitAll(req, emit, asset.Merge(out), req.Cached())
	return nil
}

func bundleName(template, key string) string {
	name := strings.Replace(template, "*", key, 1)
	if key == "" {
		name = strings.Trim(name, "_-.")
	}
	return strings.ToLower(name)
}

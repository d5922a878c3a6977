package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies what a node does.
type Kind string

const (
	KindLoader        Kind = "Loader"
	KindFilter        Kind = "Filter"
	KindImportSetting Kind = "ImportSetting"
	KindModifier      Kind = "Modifier"
	KindGrouping      Kind = "Grouping"
	KindPrefabBuilder Kind = "PrefabBuilder"
	KindBundleConfig  Kind = "BundleConfig"
	KindBundleBuilder Kind = "BundleBuilder"
	KindExporter      Kind = "Exporter"
	KindValidator     Kind = "Validator"
	KindWarpIn        Kind = "WarpIn"
	KindWarpOut       Kind = "WarpOut"
)

// Kinds lists every node kind.
var Kinds = []Kind{
	KindLoader, KindFilter, KindImportSetting, KindModifier,
	KindGrouping, KindPrefabBuilder, KindBundleConfig, KindBundleBuilder,
	KindExporter, KindValidator, KindWarpIn, KindWarpOut,
}

var legacyKinds = map[string]Kind{
	"LOADER_GUI":        KindLoader,
	"FILTER_GUI":        KindFilter,
	"IMPORTSETTING_GUI": KindImportSetting,
	"MODIFIER_GUI":      KindModifier,
	"GROUPING_GUI":      KindGrouping,
	"PREFABBUILDER_GUI": KindPrefabBuilder,
	"BUNDLECONFIG_GUI":  KindBundleConfig,
	"BUNDLEBUILDER_GUI": KindBundleBuilder,
	"EXPORTER_GUI":      KindExporter,
	"VALIDATOR_GUI":     KindValidator,
	"WARP_IN":           KindWarpIn,
	"WARP_OUT":          KindWarpOut,
}

// ParseKind accepts a kind name in any case, or an editor enum name such as
// "LOADER_GUI".
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if k, ok := legacyKinds[strings.ToUpper(s)]; ok {
		return k, nil
	}
	for _, k := range Kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// HasDefaultInput reports whether new nodes of this kind get an input point.
func (k Kind) HasDefaultInput() bool { return k != KindLoader }

// HasDefaultOutput reports whether new nodes of this kind get an output point.
func (k Kind) HasDefaultOutput() bool { return k != KindFilter && k != KindExporter }

// IsScripted reports whether the kind runs user plugin code.
func (k Kind) IsScripted() bool {
	return k == KindModifier || k == KindValidator || k == KindPrefabBuilder
}

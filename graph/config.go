package graph

import (
	"slices"
	"strconv"
	"strings"

	"github.com/kbukum/assetgraph/asset"
)

// Config is the kind-specific configuration of a node. Exactly one variant
// exists per Kind; use ConfigAs to reach the concrete type.
type Config interface {
	Kind() Kind
	clone() Config
}

// ConfigAs returns n's configuration as T. The second result is false when
// the node carries a different variant.
func ConfigAs[T Config](n *Node) (T, bool) {
	c, ok := n.Config.(T)
	return c, ok
}

// NewConfig returns the default configuration for kind.
func NewConfig(kind Kind) Config {
	switch kind {
	case KindLoader:
		return &LoaderConfig{LoadPath: PerTarget[string]{}}
	case KindFilter:
		return &FilterConfig{}
	case KindImportSetting:
		return &ImportSettingConfig{}
	case KindModifier:
		return &ModifierConfig{ScriptConfig{InstanceData: PerTarget[string]{}}}
	case KindValidator:
		return &ValidatorConfig{ScriptConfig{InstanceData: PerTarget[string]{}}}
	case KindPrefabBuilder:
		return &PrefabBuilderConfig{ScriptConfig{InstanceData: PerTarget[string]{}}}
	case KindGrouping:
		return &GroupingConfig{Keyword: Uniform(DefaultGroupingKeyword)}
	case KindBundleConfig:
		return &BundleConfigSettings{NameTemplate: Uniform(DefaultBundleNameTemplate)}
	case KindBundleBuilder:
		return &BundleBuilderConfig{Options: PerTarget[BundleOptions]{}}
	case KindExporter:
		return &ExporterConfig{ExportPath: PerTarget[string]{}, Option: PerTarget[ExportOption]{}}
	case KindWarpIn:
		return &WarpInConfig{}
	case KindWarpOut:
		return &WarpOutConfig{}
	}
	return nil
}

// Defaults for newly created nodes.
const (
	DefaultGroupingKeyword    = "/Group_*/"
	DefaultBundleNameTemplate = "bundle_*"
	DefaultFilterKeyType      = asset.TypeAny
	DefaultInputLabel         = "-"
	DefaultOutputLabel        = "+"
	BundleConfigOutputLabel   = "bundles"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// LoadPath is relative to the project root.
	LoadPath   PerTarget[string]
	PreProcess bool
	Permanent  bool
}

func (*LoaderConfig) Kind() Kind { return KindLoader }
func (c *LoaderConfig) clone() Config {
	cp := *c
	cp.LoadPath = c.LoadPath.Clone()
	return &cp
}

// FilterCondition routes assets matching Keyword and KeyType to its own
// output point.
type FilterCondition struct {
	Name    string
	Keyword string
	KeyType asset.Type
	Exclude bool
	PointID string
}

// Hash identifies conditions that would route the same assets.
func (f FilterCondition) Hash() string {
	return strings.Join([]string{f.Keyword, string(f.KeyType), strconv.FormatBool(f.Exclude)}, "\x00")
}

// FilterConfig configures a Filter.
type FilterConfig struct {
	Conditions []FilterCondition
}

func (*FilterConfig) Kind() Kind { return KindFilter }
func (c *FilterConfig) clone() Config {
	return &FilterConfig{Conditions: slices.Clone(c.Conditions)}
}

// Duplicate returns the first condition whose hash repeats an earlier one.
func (c *FilterConfig) Duplicate() (FilterCondition, bool) {
	seen := make(map[string]bool, len(c.Conditions))
	for _, f := range c.Conditions {
		h := f.Hash()
		if seen[h] {
			return f, true
		}
		seen[h] = true
	}
	return FilterCondition{}, false
}

// ConditionForPoint returns the condition feeding output point pointID.
func (c *FilterConfig) ConditionForPoint(pointID string) (FilterCondition, bool) {
	for _, f := range c.Conditions {
		if f.PointID == pointID {
			return f, true
		}
	}
	return FilterCondition{}, false
}

// ImportSettingConfig configures an ImportSetting node. The settings it
// applies are keyed by the node id.
type ImportSettingConfig struct{}

func (*ImportSettingConfig) Kind() Kind { return KindImportSetting }
func (*ImportSettingConfig) clone() Config { return &ImportSettingConfig{} }

// ScriptConfig names a plugin class and its serialized instance data.
type ScriptConfig struct {
	ClassName    string
	InstanceData PerTarget[string]
}

func (s ScriptConfig) cloneScript() ScriptConfig {
	return ScriptConfig{ClassName: s.ClassName, InstanceData: s.InstanceData.Clone()}
}

// Script returns the embedded script settings.
func (s *ScriptConfig) Script() *ScriptConfig { return s }

// ModifierConfig configures a Modifier.
type ModifierConfig struct{ ScriptConfig }

func (*ModifierConfig) Kind() Kind { return KindModifier }
func (c *ModifierConfig) clone() Config {
	return &ModifierConfig{c.cloneScript()}
}

// ValidatorConfig configures a Validator.
type ValidatorConfig struct{ ScriptConfig }

func (*ValidatorConfig) Kind() Kind { return KindValidator }
func (c *ValidatorConfig) clone() Config {
	return &ValidatorConfig{c.cloneScript()}
}

// PrefabBuilderConfig configures a PrefabBuilder.
type PrefabBuilderConfig struct{ ScriptConfig }

func (*PrefabBuilderConfig) Kind() Kind { return KindPrefabBuilder }
func (c *PrefabBuilderConfig) clone() Config {
	return &PrefabBuilderConfig{c.cloneScript()}
}

// Scripted is implemented by the configurations of plugin-backed kinds.
type Scripted interface {
	Config
	Script() *ScriptConfig
}

// GroupingConfig configures a Grouping node.
type GroupingConfig struct {
	// Keyword contains exactly one "*" marking the group key.
	Keyword PerTarget[string]
}

func (*GroupingConfig) Kind() Kind { return KindGrouping }
func (c *GroupingConfig) clone() Config {
	return &GroupingConfig{Keyword: c.Keyword.Clone()}
}

// Variant is a named input of a BundleConfig.
type Variant struct {
	Name    string
	PointID string
}

// BundleConfigSettings configures a BundleConfig node.
type BundleConfigSettings struct {
	// NameTemplate contains exactly one "*", replaced by the group key.
	NameTemplate            PerTarget[string]
	UseGroupAsVariants      bool
	SetBundleNameAndVariant bool
	Variants                []Variant
}

func (*BundleConfigSettings) Kind() Kind { return KindBundleConfig }
func (c *BundleConfigSettings) clone() Config {
	cp := *c
	cp.NameTemplate = c.NameTemplate.Clone()
	cp.Variants = slices.Clone(c.Variants)
	return &cp
}

// VariantForPoint returns the variant bound to input point pointID.
func (c *BundleConfigSettings) VariantForPoint(pointID string) (Variant, bool) {
	for _, v := range c.Variants {
		if v.PointID == pointID {
			return v, true
		}
	}
	return Variant{}, false
}

// BundleOptions are bundle build flags.
type BundleOptions int

const (
	OptionUncompressed BundleOptions = 1 << iota
	OptionCollectDependencies
	OptionCompleteAssets
	OptionDisableWriteTypeTree
	OptionDeterministic
	OptionForceRebuild
	OptionIgnoreTypeTreeChanges
	OptionAppendHash
	OptionChunkBasedCompression
	OptionStrictMode
	OptionDryRunBuild

	// AllBundleOptions has every flag set.
	AllBundleOptions = OptionDryRunBuild<<1 - 1
)

var bundleOptionNames = []struct {
	opt  BundleOptions
	name string
}{
	{OptionUncompressed, "UncompressedAssetBundle"},
	{OptionCollectDependencies, "CollectDependencies"},
	{OptionCompleteAssets, "CompleteAssets"},
	{OptionDisableWriteTypeTree, "DisableWriteTypeTree"},
	{OptionDeterministic, "DeterministicAssetBundle"},
	{OptionForceRebuild, "ForceRebuildAssetBundle"},
	{OptionIgnoreTypeTreeChanges, "IgnoreTypeTreeChanges"},
	{OptionAppendHash, "AppendHashToAssetBundleName"},
	{OptionChunkBasedCompression, "ChunkBasedCompression"},
	{OptionStrictMode, "StrictMode"},
	{OptionDryRunBuild, "DryRunBuild"},
}

// Has reports whether every bit of flag is set.
func (o BundleOptions) Has(flag BundleOptions) bool { return o&flag == flag }

// Names returns the names of the set flags in bit order.
func (o BundleOptions) Names() []string {
	var names []string
	for _, n := range bundleOptionNames {
		if o.Has(n.opt) {
			names = append(names, n.name)
		}
	}
	return names
}

// String joins Names with "|".
func (o BundleOptions) String() string {
	if o == 0 {
		return "None"
	}
	return strings.Join(o.Names(), "|")
}

// Conflicting reports whether the flags cannot be used together.
func (o BundleOptions) Conflicting() bool {
	return o.Has(OptionDisableWriteTypeTree | OptionIgnoreTypeTreeChanges)
}

// Repaired clears both type tree flags when they conflict.
func (o BundleOptions) Repaired() BundleOptions {
	if !o.Conflicting() {
		return o
	}
	return o &^ (OptionDisableWriteTypeTree | OptionIgnoreTypeTreeChanges)
}

// BundleBuilderConfig configures a BundleBuilder.
type BundleBuilderConfig struct {
	Options PerTarget[BundleOptions]
}

func (*BundleBuilderConfig) Kind() Kind { return KindBundleBuilder }
func (c *BundleBuilderConfig) clone() Config {
	return &BundleBuilderConfig{Options: c.Options.Clone()}
}

// ExportOption decides what an Exporter does with its destination directory.
type ExportOption int

const (
	ExportErrorIfMissing ExportOption = iota
	ExportCreateIfMissing
	ExportDeleteAndRecreate
)

func (o ExportOption) String() string {
	switch o {
	case ExportErrorIfMissing:
		return "ErrorIfNoExportDirectoryFound"
	case ExportCreateIfMissing:
		return "AutomaticallyCreateIfNoExportDirectoryFound"
	case ExportDeleteAndRecreate:
		return "DeleteAndRecreateExportDirectory"
	}
	return "Unknown"
}

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	ExportPath PerTarget[string]
	Option     PerTarget[ExportOption]
}

func (*ExporterConfig) Kind() Kind { return KindExporter }
func (c *ExporterConfig) clone() Config {
	return &ExporterConfig{ExportPath: c.ExportPath.Clone(), Option: c.Option.Clone()}
}

// WarpInConfig configures the entry of a warp pair.
type WarpInConfig struct{ RelatedNodeID string }

func (*WarpInConfig) Kind() Kind { return KindWarpIn }
func (c *WarpInConfig) clone() Config {
	cp := *c
	return &cp
}

// WarpOutConfig configures the exit of a warp pair.
type WarpOutConfig struct{ RelatedNodeID string }

func (*WarpOutConfig) Kind() Kind { return KindWarpOut }
func (c *WarpOutConfig) clone() Config {
	cp := *c
	return &cp
}

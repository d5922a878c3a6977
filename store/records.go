package store

// GraphRecord is the persisted form of a graph.
type GraphRecord struct {
	LastModified string             `json:"lastModified" yaml:"lastModified"`
	Nodes        []NodeRecord       `json:"nodes" yaml:"nodes" validate:"dive"`
	Connections  []ConnectionRecord `json:"connections" yaml:"connections" validate:"dive"`
}

// Position is where a node sits on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeRecord is the persisted form of a node. Only the keys of its kind
// are written.
type NodeRecord struct {
	Name         string        `json:"name" yaml:"name"`
	ID           string        `json:"id" yaml:"id" validate:"required"`
	Kind         string        `json:"kind" yaml:"kind" validate:"required,nodekind"`
	Pos          Position      `json:"pos" yaml:"pos"`
	InputPoints  []PointRecord `json:"inputPoints" yaml:"inputPoints" validate:"dive"`
	OutputPoints []PointRecord `json:"outputPoints" yaml:"outputPoints" validate:"dive"`

	// Loader
	LoadPath   map[string]string `json:"loadPath,omitempty" yaml:"loadPath,omitempty"`
	PreProcess bool              `json:"preProcess,omitempty" yaml:"preProcess,omitempty"`
	Permanent  bool              `json:"permanent,omitempty" yaml:"permanent,omitempty"`

	// Filter
	Filter []FilterRecord `json:"filter,omitempty" yaml:"filter,omitempty" validate:"dive"`

	// Grouping
	GroupingKeyword map[string]string `json:"groupingKeyword,omitempty" yaml:"groupingKeyword,omitempty"`

	// BundleConfig
	BundleNameTemplate      map[string]string `json:"bundleNameTemplate,omitempty" yaml:"bundleNameTemplate,omitempty"`
	UseGroupAsVariants      bool              `json:"useGroupAsVariants,omitempty" yaml:"useGroupAsVariants,omitempty"`
	SetBundleNameAndVariant bool              `json:"setBundleNameAndVariant,omitempty" yaml:"setBundleNameAndVariant,omitempty"`
	Variants                []VariantRecord   `json:"variants,omitempty" yaml:"variants,omitempty" validate:"dive"`

	// BundleBuilder
	EnabledBundleOptions map[string]int `json:"enabledBundleOptions,omitempty" yaml:"enabledBundleOptions,omitempty"`

	// Exporter
	ExportTo     map[string]string `json:"exportTo,omitempty" yaml:"exportTo,omitempty"`
	ExportOption map[string]int    `json:"exportOption,omitempty" yaml:"exportOption,omitempty"`

	// Modifier, Validator and PrefabBuilder
	ScriptClassName    string            `json:"scriptClassName,omitempty" yaml:"scriptClassName,omitempty"`
	ScriptInstanceData map[string]string `json:"scriptInstanceData,omitempty" yaml:"scriptInstanceData,omitempty"`

	// WarpIn and WarpOut
	RelatedNode string `json:"relatedNode,omitempty" yaml:"relatedNode,omitempty"`
}

// PointRecord is the persisted form of a connection point.
type PointRecord struct {
	ID            string `json:"id" yaml:"id" validate:"required"`
	Label         string `json:"label" yaml:"label"`
	Direction     string `json:"direction" yaml:"direction" validate:"oneof=input output"`
	OrderPriority int    `json:"orderPriority" yaml:"orderPriority"`
	ShowLabel     bool   `json:"showLabel" yaml:"showLabel"`
	Hidden        bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// FilterRecord is one filter condition.
type FilterRecord struct {
	Name     string `json:"name" yaml:"name"`
	Keyword  string `json:"keyword" yaml:"keyword"`
	KeyType  string `json:"keytype" yaml:"keytype"`
	Excludes bool   `json:"excludes" yaml:"excludes"`
	PointID  string `json:"pointId" yaml:"pointId" validate:"required"`
}

// VariantRecord is one BundleConfig variant.
type VariantRecord struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	PointID string `json:"pointId" yaml:"pointId" validate:"required"`
}

// ConnectionRecord is the persisted form of a connection.
type ConnectionRecord struct {
	ID                      string `json:"id" yaml:"id" validate:"required"`
	Label                   string `json:"label" yaml:"label"`
	FromNode                string `json:"fromNode" yaml:"fromNode"`
	FromNodeConnectionPoint string `json:"fromNodeConnectionPoint" yaml:"fromNodeConnectionPoint"`
	ToNode                  string `json:"toNode" yaml:"toNode"`
	ToNodeConnectionPoint   string `json:"toNodeConnectionPoint" yaml:"toNodeConnectionPoint"`
}

// LoadersRecord is the persisted loader registry.
type LoadersRecord struct {
	Loaders []LoaderRecord `json:"loaders" yaml:"loaders" validate:"dive"`
}

// LoaderRecord is one registry entry.
type LoaderRecord struct {
	ID         string            `json:"id" yaml:"id" validate:"required"`
	Path       map[string]string `json:"path" yaml:"path"`
	PreProcess bool              `json:"preprocess" yaml:"preprocess"`
}

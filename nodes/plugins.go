package nodes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kbukum/assetgraph/asset"
	"github.com/kbukum/assetgraph/operation"
	"github.com/kbukum/assetgraph/util"
)

// Built-in plugin class names.
const (
	MaxFileSizeClass = "MaxFileSize"
	TagClass         = "Tag"
	ManifestClass    = "Manifest"
)

// MaxFileSize rejects assets larger than MaxSize.
type MaxFileSize struct {
	MaxSize string     `json:"maxSize"`
	Type    asset.Type `json:"type,omitempty"`

	limit int64
}

// NewMaxFileSize decodes a MaxFileSize validator from its instance data.
func NewMaxFileSize(data string) (operation.Validator, error) {
	v := &MaxFileSize{}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return nil, fmt.Errorf("maxfilesize: %w", err)
	}
	v.limit = util.ParseSize(v.MaxSize, -1)
	if v.limit < 0 {
		return nil, fmt.Errorf("maxfilesize: invalid maxSize %q", v.MaxSize)
	}
	return v, nil
}

func (v *MaxFileSize) TargetType() asset.Type {
	if v.Type == "" {
		return asset.TypeAny
	}
	return v.Type
}

func (v *MaxFileSize) ShouldValidate(a asset.Asset) bool {
	return a.Type().Matches(v.TargetType())
}

func (v *MaxFileSize) Validate(_ context.Context, a asset.Asset) (bool, error) {
	size, err := sizeOf(a)
	if err != nil {
		return false, err
	}
	return size <= v.limit, nil
}

func (v *MaxFileSize) TryToRecover(context.Context, asset.Asset) (bool, error) { return false, nil }

func (v *MaxFileSize) ValidationFailed(a asset.Asset) string {
	size, _ := sizeOf(a)
	return fmt.Sprintf("%s is %s, this exceeds the maximum size of %s", a.Path(), util.FormatSize(size), util.FormatSize(v.limit))
}

func (v *MaxFileSize) Serialize() (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func sizeOf(a asset.Asset) (int64, error) {
	if a.Fingerprint() != "" {
		return a.Size(), nil
	}
	info, err := os.Stat(a.AbsPath())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Tag sets attributes on assets.
type Tag struct {
	Attrs map[string]string `json:"attrs"`
	Type  asset.Type        `json:"type,omitempty"`
}

// NewTag decodes a Tag modifier from its instance data.
func NewTag(data string) (operation.Modifier, error) {
	m := &Tag{}
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	if len(m.Attrs) == 0 {
		return nil, fmt.Errorf("tag: no attrs configured")
	}
	return m, nil
}

func (m *Tag) TargetType() asset.Type {
	if m.Type == "" {
		return asset.TypeAny
	}
	return m.Type
}

func (m *Tag) IsModified(a asset.Asset) bool {
	for k, v := range m.Attrs {
		if got, ok := a.Attr(k); !ok || got != v {
			return true
		}
	}
	return false
}

func (m *Tag) Modify(_ context.Context, a asset.Asset) (asset.Asset, error) {
	for _, k := range util.SortedKeys(m.Attrs) {
		a = a.WithAttr(k, m.Attrs[k])
	}
	return a, nil
}

func (m *Tag) Serialize() (string, error) {
	b, err := json.Marshal(m)
	return string(b), err
}

// Manifest writes a JSON listing of each group.
type Manifest struct {
	Suffix string `json:"suffix,omitempty"`
}

// GroupListing is the document written by the Manifest prefab builder.
type GroupListing struct {
	Name   string   `json:"name"`
	Group  string   `json:"group"`
	Assets []string `json:"assets"`
}

// NewManifest decodes a Manifest prefab builder from its instance data.
func NewManifest(data string) (operation.PrefabBuilder, error) {
	b := &Manifest{}
	if err := json.Unmarshal([]byte(data), b); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if b.Suffix == "" {
		b.Suffix = ".prefab.json"
	}
	return b, nil
}

func (b *Manifest) CanCreate(groupKey string, assets []asset.Asset) string {
	if len(assets) == 0 {
		return ""
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(groupKey) + b.Suffix
}

func (b *Manifest) Create(_ context.Context, name string, assets []asset.Asset, dir string) (string, error) {
	listing := GroupListing{
		Name:   name,
		Group:  strings.TrimSuffix(name, b.Suffix),
		Assets: util.Map(assets, asset.Asset.Path),
	}
	data, err := json.MarshalIndent(listing, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := util.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (b *Manifest) Serialize() (string, error) {
	data, err := json.Marshal(b)
	return string(data), err
}

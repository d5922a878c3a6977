package asset

import (
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
)

// Asset is an immutable reference to one file.
type Asset struct {
	absPath     string
	path        string
	typ         Type
	fingerprint string
	size        int64
	attrs       map[string]string
}

// New describes the file at absPath relative to root without touching disk.
func New(root, absPath string) Asset {
	absPath = filepath.Clean(absPath)
	return Asset{
		absPath: absPath,
		path:    logicalPath(root, absPath),
		typ:     InferType(absPath),
	}
}

// FromFile describes the file at absPath and fingerprints its content.
func FromFile(root, absPath string) (Asset, error) {
	a := New(root, absPath)
	return a.Refresh()
}

func logicalPath(root, absPath string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(absPath)
}

// AbsPath returns the absolute file path.
func (a Asset) AbsPath() string { return a.absPath }

// Path returns the project-relative, slash-separated path.
func (a Asset) Path() string { return a.path }

// Type returns the inferred type.
func (a Asset) Type() Type { return a.typ }

// Fingerprint returns the content hash, empty until the file was read.
func (a Asset) Fingerprint() string { return a.fingerprint }

// Size returns the file size in bytes as of the last refresh.
func (a Asset) Size() int64 { return a.size }

// FileName returns the base name of the file.
func (a Asset) FileName() string { return path.Base(a.path) }

// Attr returns an attribute set by a node, e.g. an import setting.
func (a Asset) Attr(key string) (string, bool) {
	v, ok := a.attrs[key]
	return v, ok
}

// Attrs returns a copy of all attributes.
func (a Asset) Attrs() map[string]string {
	return maps.Clone(a.attrs)
}

// WithType returns a copy with a different type.
func (a Asset) WithType(t Type) Asset {
	a.typ = t
	a.attrs = maps.Clone(a.attrs)
	return a
}

// WithFingerprint returns a copy with a different fingerprint.
func (a Asset) WithFingerprint(fp string) Asset {
	a.fingerprint = fp
	a.attrs = maps.Clone(a.attrs)
	return a
}

// WithAttr returns a copy with key set to value.
func (a Asset) WithAttr(key, value string) Asset {
	attrs := maps.Clone(a.attrs)
	if attrs == nil {
		attrs = make(map[string]string, 1)
	}
	attrs[key] = value
	a.attrs = attrs
	return a
}

// Refresh re-reads the file and returns a copy with current size and
// fingerprint.
func (a Asset) Refresh() (Asset, error) {
	info, err := os.Stat(a.absPath)
	if err != nil {
		return Asset{}, err
	}
	if info.IsDir() {
		return Asset{}, fmt.Errorf("%s is a directory", a.absPath)
	}
	fp, err := FingerprintFile(a.absPath)
	if err != nil {
		return Asset{}, err
	}
	a.size = info.Size()
	a.fingerprint = fp
	a.attrs = maps.Clone(a.attrs)
	return a, nil
}

// Equal reports whether both values describe the same file state.
func (a Asset) Equal(b Asset) bool {
	return a.absPath == b.absPath &&
		a.path == b.path &&
		a.typ == b.typ &&
		a.fingerprint == b.fingerprint &&
		a.size == b.size &&
		maps.Equal(a.attrs, b.attrs)
}

// String returns the logical path.
func (a Asset) String() string { return a.path }

type assetJSON struct {
	Path        string            `json:"path"`
	AbsPath     string            `json:"absPath"`
	Type        Type              `json:"type,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Size        int64             `json:"size,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// MarshalJSON renders the asset for manifests and API responses.
func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(assetJSON{
		Path:        a.path,
		AbsPath:     a.absPath,
		Type:        a.typ,
		Fingerprint: a.fingerprint,
		Size:        a.size,
		Attrs:       a.attrs,
	})
}

// UnmarshalJSON restores an asset written by MarshalJSON.
func (a *Asset) UnmarshalJSON(b []byte) error {
	var v assetJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = Asset{
		absPath:     v.AbsPath,
		path:        v.Path,
		typ:         v.Type,
		fingerprint: v.Fingerprint,
		size:        v.Size,
		attrs:       v.Attrs,
	}
	return nil
}

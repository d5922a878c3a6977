package asset

import (
	"path/filepath"
	"slices"
	"strings"
)

// Type is the inferred kind of an asset.
type Type string

const (
	TypeAny Type = "Any"

	TypeTexture Type = "Texture"
	TypeModel   Type = "Model"
	TypeAudio   Type = "Audio"

	TypeAnimation         Type = "Animation"
	TypeAnimator          Type = "Animator"
	TypeAvatarMask        Type = "AvatarMask"
	TypeCubemap           Type = "Cubemap"
	TypeFlare             Type = "Flare"
	TypeFont              Type = "Font"
	TypeGUISkin           Type = "GUISkin"
	TypeMaterial          Type = "Material"
	TypePhysicMaterial    Type = "PhysicMaterial"
	TypePhysicsMaterial2D Type = "PhysicsMaterial2D"
	TypeRenderTexture     Type = "RenderTexture"
	TypeShader            Type = "Shader"
	TypeScene             Type = "Scene"
	TypePrefab            Type = "Prefab"

	// TypeObject is any file that is neither ignored nor recognised.
	TypeObject Type = "Object"

	// TypeManifest is produced by bundle builders and prefab builders.
	TypeManifest Type = "Manifest"
)

// KeyTypes lists the types a filter condition can select on, TypeAny first.
var KeyTypes = []Type{
	TypeAny,
	TypeTexture, TypeModel, TypeAudio,
	TypeAnimation, TypeAnimator, TypeAvatarMask, TypeCubemap, TypeFlare,
	TypeFont, TypeGUISkin, TypeMaterial, TypePhysicMaterial,
	TypePhysicsMaterial2D, TypeRenderTexture, TypeShader, TypeScene,
	TypePrefab, TypeObject,
}

var importerExtensions = map[Type][]string{
	TypeTexture: {".png", ".jpg", ".jpeg", ".tga", ".psd", ".tif", ".tiff", ".bmp", ".gif", ".exr", ".hdr", ".iff", ".pict"},
	TypeModel:   {".fbx", ".obj", ".dae", ".3ds", ".dxf", ".blend", ".max", ".ma", ".mb"},
	TypeAudio:   {".wav", ".mp3", ".ogg", ".aif", ".aiff", ".flac", ".mod", ".it", ".s3m", ".xm"},
}

// Matched case-sensitively, unlike importer extensions.
var typeByExtension = map[string]Type{
	".anim":              TypeAnimation,
	".controller":        TypeAnimator,
	".mask":              TypeAvatarMask,
	".cubemap":           TypeCubemap,
	".flare":             TypeFlare,
	".fontsettings":      TypeFont,
	".guiskin":           TypeGUISkin,
	".mat":               TypeMaterial,
	".physicMaterial":    TypePhysicMaterial,
	".physicsMaterial2D": TypePhysicsMaterial2D,
	".renderTexture":     TypeRenderTexture,
	".shader":            TypeShader,
	".unity":             TypeScene,
	".prefab":            TypePrefab,
}

var ignoredExtensions = []string{
	"",
	".manifest",
	".assetbundle",
	".sample",
	".cs",
	".sh",
	".json",
	".js",
	".sbsar",
	".meta",
}

// IsIgnored reports whether files at path never enter a graph.
func IsIgnored(path string) bool {
	return slices.Contains(ignoredExtensions, filepath.Ext(path))
}

// InferType returns the type of the file at path, judged by its extension.
// Ignored files yield the empty Type.
func InferType(path string) Type {
	ext := filepath.Ext(path)
	if slices.Contains(ignoredExtensions, ext) {
		return ""
	}
	if t, ok := typeByExtension[ext]; ok {
		return t
	}
	lower := strings.ToLower(ext)
	for t, exts := range importerExtensions {
		if slices.Contains(exts, lower) {
			return t
		}
	}
	return TypeObject
}

// ParseType normalises a type name. Fully qualified editor names such as
// "UnityEditor.TextureImporter" map onto their short form; an empty name
// means TypeAny.
func ParseType(name string) Type {
	name = strings.TrimSpace(name)
	if name == "" || name == "-" {
		return TypeAny
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Importer")
	for _, t := range KeyTypes {
		if strings.EqualFold(string(t), name) {
			return t
		}
	}
	return Type(name)
}

// Matches reports whether an asset of type t satisfies want.
func (t Type) Matches(want Type) bool {
	return want == TypeAny || want == "" || t == want
}

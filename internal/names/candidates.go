package names

import (
	"strings"

	"github.com/meigma/fdata/internal/namehash"
)

// Classification strings found in companion name files.
const (
	ClassModel     = "TypeInfo::Object::3D::Model"
	ClassSound     = "TypeInfo::Object::Sound::Data"
	ClassAnimation = "TypeInfo::Object::3D::Animation"
	ClassTexture   = "TypeInfo::Object::Render::Texture::Static"
)

// TextureMarker starts the short name of a static texture.
const TextureMarker = "TEX_"

// classExtensions lists the extensions produced by each classification.
var classExtensions = map[string][]string{
	ClassModel:     {".g1m", ".ktid", ".mtl", ".grp", ".oid", ".oidex", ".swg", ".rigbin"},
	ClassSound:     {".srsa", ".srst"},
	ClassAnimation: {".g1a"},
	ClassTexture:   {".g1t"},
}

// Candidates returns the full file names a base name of the given class may
// appear under. Unknown classes yield nil.
func Candidates(class, base string) []string {
	exts := classExtensions[class]
	if len(exts) == 0 || base == "" {
		return nil
	}
	out := make([]string, 0, len(exts)+1)
	for _, ext := range exts {
		out = append(out, base+ext)
	}
	if class == ClassTexture {
		if i := strings.Index(base, TextureMarker); i > 0 {
			out = append(out, base[i:]+".g1t")
		}
	}
	return out
}

// AddCandidates hashes every candidate for (class, base) and records it in t.
// It returns the number of entries added.
func (t *Table) AddCandidates(class, base string) (int, error) {
	added := 0
	for _, name := range Candidates(class, base) {
		if err := t.Add(namehash.String(name), name); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

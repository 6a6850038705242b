package unit

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanPath normalizes a storage path so that equal paths compare equal as
// map keys.
//
// Normalization:
//  1. Surrounding whitespace is trimmed
//  2. Backslashes become forward slashes
//  3. Strings are NFC normalized (composed and decomposed accents collide)
//  4. path.Clean removes duplicate separators and dot segments
//
// The empty string stays empty; it means "no path" (e.g. a root's base).
func CleanPath(p string) Path {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = norm.NFC.String(p)
	return Path(path.Clean(p))
}

// Segments splits a path into its slash separated components.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(strings.Trim(string(p), "/"), "/")
}

// DefaultModsRoot is the directory extension packages live under.
const DefaultModsRoot = "mods"

// PackageFromPath derives the owning package of an extension path: the first
// segment below modsRoot. "mods/M1/ext/a" belongs to package "M1".
func PackageFromPath(p Path, modsRoot string) (PackageID, bool) {
	root := CleanPath(modsRoot).Segments()
	segs := p.Segments()
	if len(segs) <= len(root) {
		return "", false
	}
	for i, s := range root {
		if segs[i] != s {
			return "", false
		}
	}
	return PackageID(segs[len(root)]), true
}

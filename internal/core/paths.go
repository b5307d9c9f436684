package core

import (
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// ResolveLocal maps an untrusted slash-separated path, taken from a request
// URL, to a location under root. Paths that are empty, absolute, or whose
// cleaned form climbs out of root are rejected before any filesystem access.
// Symlinks inside root are resolved without escaping it.
func ResolveLocal(root, rel string) (string, error) {
	if rel == "" || strings.ContainsAny(rel, "\x00\\") {
		return "", ErrOutsideRoot
	}
	if path.IsAbs(rel) || filepath.IsAbs(rel) {
		return "", ErrOutsideRoot
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrOutsideRoot
	}

	return securejoin.SecureJoin(root, filepath.FromSlash(clean))
}

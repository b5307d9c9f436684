package fetch

import (
	"fmt"
	"os"

	"github.com/git-pkgs/fauxregistry/internal/core"
)

// Locator reads archives previously written into local package directories.
// It never consults the upstream registry.
type Locator struct {
	root string
}

// NewLocator creates a Locator for archives under root.
func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// Path resolves "<package name>/<archive filename>" to a file under the root.
func (l *Locator) Path(rel string) (string, error) {
	path, err := core.ResolveLocal(l.root, rel)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotFound, rel, err)
	}
	return path, nil
}

// Locate reads the archive at "<package name>/<archive filename>" fully into
// memory. Missing files, directories, and paths outside the root all return
// an error wrapping ErrNotFound.
func (l *Locator) Locate(rel string) ([]byte, error) {
	path, err := l.Path(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", ErrNotFound, rel)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, nil
}

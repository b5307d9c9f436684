package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DefaultPackager is the packager used when none is configured.
const DefaultPackager = "npm"

// Packager turns a local package directory into a distributable archive.
type Packager interface {
	// Name returns the registered name of this packager (e.g., "npm", "tarball").
	Name() string

	// Pack writes an archive into dir and returns its filename relative to dir.
	Pack(ctx context.Context, dir string) (*Archive, error)
}

// Factory creates a packager instance.
type Factory func() Packager

var (
	factories = make(map[string]Factory)
	mu        sync.RWMutex
)

// RegisterPackager adds a packager factory to the global registry.
func RegisterPackager(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// NewPackager creates the packager registered under name.
// If name is empty, DefaultPackager is used.
func NewPackager(name string) (Packager, error) {
	if name == "" {
		name = DefaultPackager
	}

	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown packager: %s", name)
	}

	return factory(), nil
}

// SupportedPackagers returns all registered packager names, sorted.
func SupportedPackagers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

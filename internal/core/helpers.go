package core

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 15

// DiscoverPackages lists the local packages under root: every immediate
// child directory with a valid package.json, plus @scope/* directories.
// Directories without a usable descriptor are skipped. Nothing is packed.
func DiscoverPackages(ctx context.Context, root string) ([]LocalPackage, error) {
	return DiscoverPackagesWithConcurrency(ctx, root, defaultConcurrency)
}

// DiscoverPackagesWithConcurrency is DiscoverPackages with a custom limit on
// descriptors read in parallel.
func DiscoverPackagesWithConcurrency(ctx context.Context, root string, concurrency int) ([]LocalPackage, error) {
	dirs, err := candidateDirs(root)
	if err != nil {
		return nil, err
	}

	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		found []LocalPackage
		mu    sync.Mutex
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, dir := range dirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			desc, err := LoadDescriptor(dir)
			if err != nil {
				return nil
			}
			mu.Lock()
			found = append(found, LocalPackage{Name: desc.Name, Version: desc.Version, Dir: dir})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

func candidateDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if !strings.HasPrefix(e.Name(), "@") {
			dirs = append(dirs, dir)
			continue
		}
		scoped, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, s := range scoped {
			if s.IsDir() {
				dirs = append(dirs, filepath.Join(dir, s.Name()))
			}
		}
	}
	return dirs, nil
}

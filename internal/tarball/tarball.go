// Package tarball packages local directories into npm-compatible tarballs
// without shelling out to npm.
package tarball

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/git-pkgs/fauxregistry/internal/core"
)

const name = "tarball"

// npm stamps every entry with this time so repeated packs are byte-identical.
var packTime = time.Date(1985, time.October, 26, 8, 15, 0, 0, time.UTC)

var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

func init() {
	core.RegisterPackager(name, func() core.Packager {
		return New()
	})
}

// Packager writes <short>-<version>.tgz into the package directory, with
// every file under a top-level "package/" directory as npm does.
type Packager struct {
	level int
}

// New returns a tarball packager using maximum gzip compression.
func New() *Packager {
	return &Packager{level: gzip.BestCompression}
}

func (p *Packager) Name() string {
	return name
}

func (p *Packager) Pack(ctx context.Context, dir string) (*core.Archive, error) {
	desc, err := core.LoadDescriptor(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPackagingFailed, err)
	}

	files, err := collectFiles(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: walking %s: %v", core.ErrPackagingFailed, dir, err)
	}

	filename := core.ArchiveFilename(desc.Name, desc.Version)

	tmp, err := os.CreateTemp(dir, ".pack-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPackagingFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := p.write(ctx, tmp, dir, files); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("%w: writing %s: %v", core.ErrPackagingFailed, filename, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPackagingFailed, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, filename)); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrPackagingFailed, err)
	}

	return &core.Archive{Filename: filename}, nil
}

func (p *Packager) write(ctx context.Context, w io.Writer, dir string, files []string) error {
	gz, err := gzip.NewWriterLevel(w, p.level)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(tw, dir, rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFile(tw *tar.Writer, dir, rel string) error {
	f, err := os.Open(filepath.Join(dir, rel))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	mode := int64(0o644)
	if info.Mode()&0o111 != 0 {
		mode = 0o755
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     "package/" + filepath.ToSlash(rel),
		Size:     info.Size(),
		Mode:     mode,
		ModTime:  packTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// collectFiles returns the regular files to pack, relative to dir, sorted.
func collectFiles(ctx context.Context, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tgz") || strings.HasPrefix(d.Name(), ".pack-") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

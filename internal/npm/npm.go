// Package npm synthesizes npm registry metadata documents for local packages.
package npm

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/github/go-spdx/v2/spdxexp"
	"github.com/sirupsen/logrus"

	"github.com/git-pkgs/fauxregistry/client"
	"github.com/git-pkgs/fauxregistry/internal/core"
)

const (
	// DefaultTimestamp is the publish time reported for every local version.
	DefaultTimestamp = "2020-11-17T00:00:00.000Z"

	// DefaultPackTimeout bounds a single packaging run.
	DefaultPackTimeout = 60 * time.Second

	defaultReadmeFilename = "README.md"
	defaultReadme         = "README"
)

// Synthesizer builds metadata documents for packages under a local root.
// Nothing is cached: every call re-reads the descriptor and re-packs, so
// edits to a local package show up on the next request.
type Synthesizer struct {
	root        string
	packager    core.Packager
	urls        client.URLBuilder
	timestamp   string
	packTimeout time.Duration
	logger      logrus.FieldLogger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTimestamp sets the synthetic publish time reported in "time".
func WithTimestamp(ts string) Option {
	return func(s *Synthesizer) {
		if ts != "" {
			s.timestamp = ts
		}
	}
}

// WithPackTimeout bounds each packaging run. Zero disables the bound.
func WithPackTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.packTimeout = d
	}
}

// WithLogger sets the logger for warnings and packaging events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Synthesizer) {
		s.logger = l
	}
}

// New creates a Synthesizer for packages under root.
func New(root string, packager core.Packager, urls client.URLBuilder, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		root:        root,
		packager:    packager,
		urls:        urls,
		timestamp:   DefaultTimestamp,
		packTimeout: DefaultPackTimeout,
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize returns the serialized metadata document for name. It returns an
// error wrapping core.ErrNotLocal when name has no local directory, and a
// *core.SynthesisError when the directory exists but cannot be served.
func (s *Synthesizer) Synthesize(ctx context.Context, name string) ([]byte, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &core.SynthesisError{Name: name, Stage: "encode", Err: err}
	}
	return data, nil
}

// Document builds the metadata document for name without serializing it.
func (s *Synthesizer) Document(ctx context.Context, name string) (*core.Document, error) {
	dir, err := s.localDir(name)
	if err != nil {
		return nil, err
	}

	desc, err := core.LoadDescriptor(dir)
	if err != nil {
		return nil, &core.SynthesisError{Name: name, Stage: "descriptor", Err: err}
	}

	log := s.logger.WithFields(logrus.Fields{
		"package":  name,
		"purl":     core.PURL(desc.Name, desc.Version),
		"packager": s.packager.Name(),
	})
	s.checkLicense(log, desc.License)

	archive, err := s.pack(ctx, dir)
	if err != nil {
		return nil, &core.SynthesisError{Name: name, Stage: "pack", Err: err}
	}
	filename := filepath.Base(archive.Filename)
	log.WithField("archive", filename).Debug("packed local package")

	shasum, integrity, err := digest(filepath.Join(dir, filename))
	if err != nil {
		return nil, &core.SynthesisError{Name: name, Stage: "digest", Err: err}
	}

	maintainers := []any{}
	if desc.Author != nil {
		maintainers = append(maintainers, desc.Author)
	}

	version := make(map[string]any, len(desc.Manifest)+3)
	for k, v := range desc.Manifest {
		version[k] = v
	}
	version["_id"] = desc.Name + "@" + desc.Version
	version["maintainers"] = maintainers
	version["dist"] = core.Dist{
		Tarball:   s.urls.Tarball(name, filename),
		Shasum:    shasum,
		Integrity: integrity,
	}

	readmeFilename, readme := readReadme(dir)

	return &core.Document{
		DistTags:       map[string]string{"latest": desc.Version},
		Name:           desc.Name,
		ReadmeFilename: readmeFilename,
		Readme:         readme,
		Author:         desc.Author,
		ID:             desc.Name,
		Bugs:           desc.Bugs,
		Description:    desc.Description,
		Homepage:       desc.Homepage,
		License:        desc.License,
		Repository:     desc.Repository,
		Maintainers:    maintainers,
		Time:           map[string]string{desc.Version: s.timestamp},
		Versions:       map[string]map[string]any{desc.Version: version},
	}, nil
}

// localDir resolves name to an existing directory under the root.
func (s *Synthesizer) localDir(name string) (string, error) {
	dir, err := core.ResolveLocal(s.root, name)
	if err != nil {
		return "", &core.NotLocalError{Name: name, Reason: err.Error()}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", &core.NotLocalError{Name: name}
	}
	if !info.IsDir() {
		return "", &core.NotLocalError{Name: name, Reason: "not a directory"}
	}
	return dir, nil
}

func (s *Synthesizer) pack(ctx context.Context, dir string) (*core.Archive, error) {
	if s.packTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.packTimeout)
		defer cancel()
	}

	archive, err := s.packager.Pack(ctx, dir)
	if err != nil {
		return nil, err
	}
	if archive == nil || archive.Filename == "" {
		return nil, fmt.Errorf("%w: %s returned no archive", core.ErrPackagingFailed, s.packager.Name())
	}
	return archive, nil
}

// checkLicense warns about license fields that are not SPDX expressions.
// npm accepts them, so this never fails synthesis.
func (s *Synthesizer) checkLicense(log logrus.FieldLogger, license any) {
	ids := extractLicenses(license)
	if len(ids) == 0 {
		return
	}
	if valid, invalid := spdxexp.ValidateLicenses(ids); !valid {
		log.WithField("license", invalid).Warn("package license is not a valid SPDX expression")
	}
}

// digest returns the sha1 hex shasum and sha512 SRI integrity of a file.
func digest(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	sum1 := sha1.Sum(data)
	sum512 := sha512.Sum512(data)
	return hex.EncodeToString(sum1[:]), "sha512-" + base64.StdEncoding.EncodeToString(sum512[:]), nil
}

// readReadme returns the first README-like file in dir, or npm's placeholder.
func readReadme(dir string) (string, string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return defaultReadmeFilename, defaultReadme
	}

	var candidates []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(strings.ToLower(e.Name()), "readme") {
			candidates = append(candidates, e.Name())
		}
	}
	sort.Strings(candidates)

	for _, name := range candidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return name, string(data)
		}
	}
	return defaultReadmeFilename, defaultReadme
}

func extractLicenses(v any) []string {
	switch l := v.(type) {
	case string:
		if l == "" || strings.HasPrefix(l, "SEE LICENSE IN") || l == "UNLICENSED" {
			return nil
		}
		return []string{l}
	case map[string]any:
		if t, ok := l["type"].(string); ok && t != "" {
			return []string{t}
		}
	case []any:
		var licenses []string
		for _, item := range l {
			licenses = append(licenses, extractLicenses(item)...)
		}
		return licenses
	}
	return nil
}

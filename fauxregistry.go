// Package fauxregistry is a local stand-in for the npm registry.
//
// Requests for packages that exist as directories under a local root are
// answered with metadata synthesized from their package.json, and the
// tarballs referenced by that metadata are packed on demand and served from
// disk. Every other request is relayed to the upstream registry unmodified.
//
// Basic usage:
//
//	import (
//		"github.com/git-pkgs/fauxregistry"
//		_ "github.com/git-pkgs/fauxregistry/all"
//	)
//
//	cfg := fauxregistry.DefaultConfig()
//	cfg.Root = "./faux_modules"
//
//	router, err := fauxregistry.New(cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer router.Close()
//
//	srv := fauxregistry.NewServer(cfg.Port, router, logger)
//	log.Fatal(srv.Run(ctx))
//
// Packagers register themselves on import; import the all subpackage (or a
// single packager package) before calling New.
package fauxregistry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/git-pkgs/fauxregistry/client"
	"github.com/git-pkgs/fauxregistry/fetch"
	"github.com/git-pkgs/fauxregistry/internal/config"
	"github.com/git-pkgs/fauxregistry/internal/core"
	"github.com/git-pkgs/fauxregistry/internal/npm"
)

// Re-export types from internal packages
type (
	// Config holds the process-wide settings.
	Config = config.Config

	// Document is a synthesized registry metadata document.
	Document = core.Document

	// LocalPackage identifies a package found under the local root.
	LocalPackage = core.LocalPackage

	// Packager turns a local package directory into a tarball.
	Packager = core.Packager

	// SynthesisError reports a local package that exists but cannot be served.
	SynthesisError = core.SynthesisError
)

// Re-export errors
var (
	ErrNotLocal         = core.ErrNotLocal
	ErrArtifactNotFound = fetch.ErrNotFound
	ErrUpstreamDown     = fetch.ErrUpstreamDown
)

// DefaultConfig returns the built-in configuration: port 8043, packages under
// ./faux_modules, forwarding to https://registry.npmjs.org.
func DefaultConfig() Config {
	return config.Default()
}

// SupportedPackagers returns all registered packager names.
// Note: packagers must be imported to be registered.
func SupportedPackagers() []string {
	return core.SupportedPackagers()
}

// DiscoverPackages lists the local packages under root.
func DiscoverPackages(ctx context.Context, root string) ([]LocalPackage, error) {
	return core.DiscoverPackages(ctx, root)
}

// New wires a Router from cfg: the configured packager and synthesizer for
// local packages, a locator for their tarballs, and a forwarder (behind a
// circuit breaker unless BreakerThreshold is zero) for everything else.
func New(cfg Config, logger logrus.FieldLogger) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	packager, err := core.NewPackager(cfg.Packager)
	if err != nil {
		return nil, err
	}

	synth := npm.New(cfg.Root, packager, client.NewURLs(cfg.Host, cfg.Port),
		npm.WithTimestamp(cfg.Timestamp),
		npm.WithPackTimeout(cfg.PackTimeout),
		npm.WithLogger(logger),
	)

	fwd, err := fetch.NewForwarder(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("configuring upstream: %w", err)
	}
	var forwarder fetch.ForwarderInterface = fwd
	if cfg.BreakerThreshold > 0 {
		forwarder = fetch.NewCircuitBreakerForwarder(fwd, cfg.BreakerThreshold)
	}

	opts := []RouterOption{WithLogger(logger), withCloser(fwd.Close)}
	if cfg.FallbackOnError {
		opts = append(opts, WithFallbackOnError())
	}
	return NewRouter(synth, fetch.NewLocator(cfg.Root), forwarder, opts...), nil
}

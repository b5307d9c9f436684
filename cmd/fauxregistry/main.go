// Command fauxregistry runs a local npm registry stand-in. Packages found
// under the configured root are served from disk; every other request is
// relayed to the upstream registry.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/fauxregistry"
	_ "github.com/git-pkgs/fauxregistry/all"
	"github.com/git-pkgs/fauxregistry/client"
	"github.com/git-pkgs/fauxregistry/internal/config"
	"github.com/git-pkgs/fauxregistry/internal/logging"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	v := config.New()
	var configFile string

	cmd := &cobra.Command{
		Use:          "fauxregistry",
		Short:        "Serve local npm packages and proxy the rest to the registry",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, stdout)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "optional YAML config file")
	if err := config.BindFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, cfg fauxregistry.Config, stdout io.Writer) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.LogFile, stdout, level)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	router, err := fauxregistry.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = router.Close() }()

	logLocalPackages(ctx, cfg, logger)

	logger.WithFields(logrus.Fields{
		"root":     cfg.Root,
		"upstream": cfg.Upstream,
		"packager": cfg.Packager,
	}).Info("configured")

	return fauxregistry.NewServer(cfg.Port, router, logger).Run(ctx)
}

// logLocalPackages reports what the root holds at startup. A missing root is
// not fatal: every request is then forwarded.
func logLocalPackages(ctx context.Context, cfg fauxregistry.Config, logger logrus.FieldLogger) {
	pkgs, err := fauxregistry.DiscoverPackages(ctx, cfg.Root)
	if err != nil {
		logger.WithError(err).WithField("root", cfg.Root).Warn("cannot read local packages")
		return
	}

	urls := client.NewURLs(cfg.Host, cfg.Port)
	for _, p := range pkgs {
		logger.WithFields(logrus.Fields{
			"package": p.Name,
			"version": p.Version,
			"url":     urls.Packument(p.Name),
		}).Info("local package")
	}
	logger.WithField("count", len(pkgs)).Info("local packages discovered")
}

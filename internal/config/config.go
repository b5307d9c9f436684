// Package config loads the process-wide settings once at startup. The
// resulting Config is passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/git-pkgs/fauxregistry/fetch"
	"github.com/git-pkgs/fauxregistry/internal/core"
	"github.com/git-pkgs/fauxregistry/internal/logging"
	"github.com/git-pkgs/fauxregistry/internal/npm"
)

// EnvPrefix namespaces environment overrides (FAUX_PORT, FAUX_ROOT, ...).
const EnvPrefix = "FAUX"

const (
	DefaultPort = 8043
	DefaultHost = "localhost"
	DefaultRoot = "faux_modules"
)

// Config holds the settings shared by the router, synthesizer, and forwarder.
type Config struct {
	Port             int
	Host             string // advertised in tarball URLs
	Root             string // local packages root
	Upstream         string
	LogFile          string
	LogLevel         string
	Packager         string
	PackTimeout      time.Duration
	Timestamp        string
	BreakerThreshold int
	FallbackOnError  bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		Host:             DefaultHost,
		Root:             DefaultRoot,
		Upstream:         fetch.DefaultUpstream,
		LogFile:          logging.DefaultFile,
		LogLevel:         "info",
		Packager:         core.DefaultPackager,
		PackTimeout:      npm.DefaultPackTimeout,
		Timestamp:        npm.DefaultTimestamp,
		BreakerThreshold: fetch.DefaultBreakerThreshold,
	}
}

// BindFlags registers command-line flags on fs and binds them into v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	d := Default()
	fs.Int("port", d.Port, "port to listen on (all interfaces)")
	fs.String("host", d.Host, "host name advertised in tarball URLs")
	fs.String("root", d.Root, "directory holding local packages")
	fs.String("upstream", d.Upstream, "registry to forward non-local requests to")
	fs.String("log-file", d.LogFile, "file every log line is appended to")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("packager", d.Packager, "packager used to build local tarballs (npm, tarball)")
	fs.Duration("pack-timeout", d.PackTimeout, "maximum time for a single packaging run (0 disables)")
	fs.String("timestamp", d.Timestamp, "publish time reported for local versions")
	fs.Int("breaker-threshold", d.BreakerThreshold, "upstream transport failures before failing fast (0 disables)")
	fs.Bool("fallback-on-error", d.FallbackOnError, "forward upstream when a local package fails to build")

	return v.BindPFlags(fs)
}

// New returns a viper instance with defaults and environment overrides wired.
// The legacy lower-case faux_port variable is honoured alongside FAUX_PORT.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("host", d.Host)
	v.SetDefault("root", d.Root)
	v.SetDefault("upstream", d.Upstream)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("packager", d.Packager)
	v.SetDefault("pack-timeout", d.PackTimeout)
	v.SetDefault("timestamp", d.Timestamp)
	v.SetDefault("breaker-threshold", d.BreakerThreshold)
	v.SetDefault("fallback-on-error", d.FallbackOnError)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "FAUX_PORT", "faux_port")
	return v
}

// Load reads an optional config file and returns the effective Config.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := Config{
		Port:             v.GetInt("port"),
		Host:             v.GetString("host"),
		Root:             v.GetString("root"),
		Upstream:         v.GetString("upstream"),
		LogFile:          v.GetString("log-file"),
		LogLevel:         v.GetString("log-level"),
		Packager:         v.GetString("packager"),
		PackTimeout:      v.GetDuration("pack-timeout"),
		Timestamp:        v.GetString("timestamp"),
		BreakerThreshold: v.GetInt("breaker-threshold"),
		FallbackOnError:  v.GetBool("fallback-on-error"),
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail at first use.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Root == "" {
		return errors.New("packages root is required")
	}
	u, err := url.Parse(c.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream URL %q", c.Upstream)
	}
	if c.PackTimeout < 0 {
		return fmt.Errorf("invalid pack timeout %s", c.PackTimeout)
	}
	if c.BreakerThreshold < 0 {
		return fmt.Errorf("invalid breaker threshold %d", c.BreakerThreshold)
	}
	return nil
}

// Package client builds the URLs this server hands out to registry clients.
package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	// ArtifactPrefix is the first path segment reserved for local tarballs.
	ArtifactPrefix = "__packages__"

	// RestrictedPrefix marks registry-internal paths (/-/ping, /-/v1/search)
	// that are never served locally.
	RestrictedPrefix = "-"
)

// URLBuilder constructs URLs pointing back at this server.
type URLBuilder interface {
	Tarball(name, filename string) string
	Packument(name string) string
}

// BaseURLs provides a URLBuilder backed by optional functions.
type BaseURLs struct {
	TarballFn   func(name, filename string) string
	PackumentFn func(name string) string
}

func (b *BaseURLs) Tarball(name, filename string) string {
	if b.TarballFn != nil {
		return b.TarballFn(name, filename)
	}
	return ""
}

func (b *BaseURLs) Packument(name string) string {
	if b.PackumentFn != nil {
		return b.PackumentFn(name)
	}
	return ""
}

// URLs is the URLBuilder for a server reachable at http://host:port.
type URLs struct {
	baseURL string
}

// NewURLs returns a URLBuilder for http://host:port.
func NewURLs(host string, port int) *URLs {
	return &URLs{baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(port))}
}

// NewURLsFromBase returns a URLBuilder rooted at an explicit base URL.
func NewURLsFromBase(baseURL string) *URLs {
	return &URLs{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// BaseURL returns the server root, without a trailing slash.
func (u *URLs) BaseURL() string {
	return u.baseURL
}

func (u *URLs) Tarball(name, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s", u.baseURL, ArtifactPrefix, name, filename)
}

func (u *URLs) Packument(name string) string {
	return fmt.Sprintf("%s/%s", u.baseURL, name)
}

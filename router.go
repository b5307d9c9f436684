package fauxregistry

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/git-pkgs/fauxregistry/client"
	"github.com/git-pkgs/fauxregistry/fetch"
	"github.com/git-pkgs/fauxregistry/internal/core"
)

// Synthesizer builds the serialized metadata document for a local package.
// Errors wrapping ErrNotLocal mean the request belongs upstream.
type Synthesizer interface {
	Synthesize(ctx context.Context, name string) ([]byte, error)
}

// Locator reads a previously packed archive given "<name>/<filename>".
type Locator interface {
	Locate(rel string) ([]byte, error)
}

// Forwarder relays a request to the upstream registry.
type Forwarder = fetch.ForwarderInterface

// Router dispatches each inbound request to the artifact locator, the
// metadata synthesizer, or the upstream forwarder.
type Router struct {
	synth     Synthesizer
	locator   Locator
	forwarder Forwarder
	logger    logrus.FieldLogger
	fallback  bool
	closers   []func()
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger every routing decision is written to.
func WithLogger(l logrus.FieldLogger) RouterOption {
	return func(rt *Router) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithFallbackOnError forwards requests for local packages that fail to
// build instead of answering 404.
func WithFallbackOnError() RouterOption {
	return func(rt *Router) {
		rt.fallback = true
	}
}

func withCloser(fn func()) RouterOption {
	return func(rt *Router) {
		rt.closers = append(rt.closers, fn)
	}
}

// NewRouter creates a Router from its three collaborators.
func NewRouter(synth Synthesizer, locator Locator, forwarder Forwarder, opts ...RouterOption) *Router {
	rt := &Router{
		synth:     synth,
		locator:   locator,
		forwarder: forwarder,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Close releases resources held by the router's collaborators.
func (rt *Router) Close() error {
	for _, fn := range rt.closers {
		fn()
	}
	rt.closers = nil
	return nil
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := decodePath(r)
	first, rest, _ := strings.Cut(path, "/")

	log := rt.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   path,
	})

	if first == client.ArtifactPrefix {
		rt.serveArtifact(w, r, rest, log)
		return
	}

	if isRead(r.Method) && !strings.HasPrefix(first, client.RestrictedPrefix) {
		body, err := rt.synth.Synthesize(r.Context(), path)
		switch {
		case err == nil:
			log.Info("using local package")
			writeLocal(w, r, "application/json", body)
			return
		case errors.Is(err, core.ErrNotLocal):
			log.WithError(err).Debug("not a local package")
		default:
			log.WithError(err).Error("building local package failed")
			if !rt.fallback {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		}
	}

	rt.forward(w, r, log)
}

func (rt *Router) serveArtifact(w http.ResponseWriter, r *http.Request, rel string, log logrus.FieldLogger) {
	log = log.WithField("artifact", rel)

	data, err := rt.locator.Locate(rel)
	if err != nil {
		log.WithError(err).Warn("local tarball not found")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	log.WithField("size", len(data)).Info("using local tarball")
	writeLocal(w, r, "application/octet-stream", data)
}

func (rt *Router) forward(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) {
	log = log.WithField("uri", r.RequestURI)
	log.Info("forwarding to upstream")

	resp, err := rt.forwarder.Forward(r.Context(), r)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.WithError(err).Debug("client went away")
		} else {
			log.WithError(err).Error("upstream request failed")
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	header := w.Header()
	for key, values := range resp.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	if r.Method != http.MethodHead {
		header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.Body)
	}

	log.WithFields(logrus.Fields{
		"status": resp.StatusCode,
		"size":   len(resp.Body),
	}).Debug("relayed upstream response")
}

func writeLocal(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// decodePath percent-decodes the request path without its leading slash.
// A path that fails to decode is used as received.
func decodePath(r *http.Request) string {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// Package fetch relays requests to the upstream registry and reads local
// artifacts for the packages served from disk.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/dnscache"
)

// DefaultUpstream is the registry every non-local request is relayed to.
const DefaultUpstream = "https://registry.npmjs.org"

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrUpstreamDown = errors.New("upstream registry unavailable")
)

// Response is an upstream reply, read to completion. The body is opaque and
// never parsed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ForwarderInterface defines the interface for upstream forwarders.
type ForwarderInterface interface {
	Forward(ctx context.Context, in *http.Request) (*Response, error)
}

// Forwarder relays inbound requests to the upstream registry.
type Forwarder struct {
	client   *http.Client
	upstream *url.URL
	stop     chan struct{}
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) {
		f.client = c
	}
}

// NewForwarder creates a Forwarder for the given upstream base URL.
// If upstream is empty, DefaultUpstream is used.
func NewForwarder(upstream string, opts ...Option) (*Forwarder, error) {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	u, err := url.Parse(strings.TrimSuffix(upstream, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream URL: %q", upstream)
	}

	f := &Forwarder{
		upstream: u,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = f.defaultClient()
	}
	return f, nil
}

// defaultClient builds a client with a DNS-caching dialer. There is no
// overall timeout: a hung upstream stalls only its own request, and the
// inbound request's context still cancels it.
func (f *Forwarder) defaultClient() *http.Client {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-f.stop:
				return
			}
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				if err != nil {
					return nil, err
				}
				for _, ip := range ips {
					conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						return conn, nil
					}
				}
				return nil, fmt.Errorf("failed to dial any resolved IP")
			},
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			// Bytes are relayed as received; never negotiate or decode gzip here.
			DisableCompression: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Close stops the background DNS refresher.
func (f *Forwarder) Close() {
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
}

// Upstream returns the upstream base URL.
func (f *Forwarder) Upstream() string {
	return f.upstream.String()
}

// Target returns the upstream URL for an inbound request: the upstream base
// followed by the original, still-escaped path and query.
func (f *Forwarder) Target(in *http.Request) string {
	requestURI := in.RequestURI
	if !strings.HasPrefix(requestURI, "/") {
		requestURI = in.URL.RequestURI()
	}
	return f.upstream.Scheme + "://" + f.upstream.Host + singleJoiningSlash(f.upstream.EscapedPath(), requestURI)
}

// Forward relays in to the upstream registry. Bodies of write methods are
// buffered completely before the outbound request is sent. The Host header
// is rewritten to the upstream host; all other end-to-end headers pass
// through unmodified.
func (f *Forwarder) Forward(ctx context.Context, in *http.Request) (*Response, error) {
	var body io.Reader
	if methodCarriesBody(in.Method) && in.Body != nil {
		data, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := f.Target(in)
	out, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range in.Header {
		if isHopByHopHeader(key) || strings.EqualFold(key, "Host") {
			continue
		}
		for _, value := range values {
			out.Header.Add(key, value)
		}
	}
	out.Host = f.upstream.Host

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("forwarding %s %s: %w", in.Method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upstream response: %w", err)
	}

	header := resp.Header.Clone()
	for key := range header {
		if isHopByHopHeader(key) {
			header.Del(key)
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       data,
	}, nil
}

func methodCarriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"proxy-connection":    true,
	"te":                  true,
	"trailer":             true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// isHopByHopHeader reports headers owned by a single connection.
func isHopByHopHeader(name string) bool {
	return hopByHopHeaders[strings.ToLower(name)]
}

func singleJoiningSlash(a, b string) string {
	aSlash := strings.HasSuffix(a, "/")
	bSlash := strings.HasPrefix(b, "/")
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	}
	return a + b
}

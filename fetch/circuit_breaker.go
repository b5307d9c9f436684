package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// DefaultBreakerThreshold is the number of transport failures that trips a breaker.
const DefaultBreakerThreshold = 5

// CircuitBreakerForwarder wraps a forwarder with per-upstream circuit breakers.
// Only transport failures count against a breaker; any HTTP status the
// upstream answers with, including 5xx, is relayed as a success.
type CircuitBreakerForwarder struct {
	forwarder ForwarderInterface
	threshold int64
	breakers  map[string]*circuit.Breaker
	mu        sync.RWMutex
}

// NewCircuitBreakerForwarder creates a new circuit breaker wrapper for a forwarder.
// A threshold of zero or less uses DefaultBreakerThreshold.
func NewCircuitBreakerForwarder(f ForwarderInterface, threshold int) *CircuitBreakerForwarder {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	return &CircuitBreakerForwarder{
		forwarder: f,
		threshold: int64(threshold),
		breakers:  make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given upstream host.
func (cbf *CircuitBreakerForwarder) getBreaker(host string) *circuit.Breaker {
	cbf.mu.RLock()
	breaker, exists := cbf.breakers[host]
	cbf.mu.RUnlock()

	if exists {
		return breaker
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()

	// Double-check after acquiring write lock
	if breaker, exists := cbf.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	opts := &circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(cbf.threshold),
	}
	breaker = circuit.NewBreakerWithOptions(opts)

	cbf.breakers[host] = breaker
	return breaker
}

// Forward wraps the underlying forwarder's Forward with circuit breaker logic.
func (cbf *CircuitBreakerForwarder) Forward(ctx context.Context, in *http.Request) (*Response, error) {
	host := in.Host
	if t, ok := cbf.forwarder.(interface{ Upstream() string }); ok {
		host = extractHost(t.Upstream())
	}
	breaker := cbf.getBreaker(host)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for upstream %s: %w", host, ErrUpstreamDown)
	}

	var (
		resp      *Response
		cancelled error
	)
	err := breaker.Call(func() error {
		var fwdErr error
		resp, fwdErr = cbf.forwarder.Forward(ctx, in)
		// A client hanging up says nothing about the upstream.
		if fwdErr != nil && errors.Is(fwdErr, context.Canceled) {
			cancelled = fwdErr
			return nil
		}
		return fwdErr
	}, 0)

	if cancelled != nil {
		return nil, cancelled
	}
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("circuit breaker open for upstream %s: %w", host, ErrUpstreamDown)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// BreakerStates returns the current state of each upstream's breaker.
func (cbf *CircuitBreakerForwarder) BreakerStates() map[string]string {
	cbf.mu.RLock()
	defer cbf.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range cbf.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

// extractHost returns the host of rawURL for breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

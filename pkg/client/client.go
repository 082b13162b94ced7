package client

import (
	"context"
	"crypto/tls"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/replicate/pcat/pkg/logging"
	"github.com/replicate/pcat/pkg/version"
)

const (
	retryMinWait     = 100 * time.Millisecond  // in milliseconds
	retryMaxWait     = 3000 * time.Millisecond // in milliseconds, do not backoff further than 3 seconds
	retrySleepJitter = 500                     // (will add 0-500 additional milliseconds), multiplied by time.Millisecond in backoffFunc

	defaultConnTimeout = 5 * time.Second
)

// Options control how the underlying transport is built.
type Options struct {
	// ConnectTimeout bounds connection establishment, not the full request.
	ConnectTimeout time.Duration
	// MaxRetries only applies to clients returned by NewRetryingClient.
	MaxRetries int
	// MaxConnPerHost caps connections opened to a single host. Zero means no cap.
	MaxConnPerHost int
	// ForceHTTP2 restricts ALPN to h2 so the server cannot negotiate down to HTTP/1.1.
	ForceHTTP2 bool
	// ResolveOverrides maps host:port to addr:port, bypassing DNS for matching dials.
	ResolveOverrides map[string]string
}

// HTTPClient is a thin wrapper around http.Client so call sites deal in a single
// type whether or not the client retries internally.
type HTTPClient struct {
	*http.Client
}

type UserAgentTransport struct {
	Transport http.RoundTripper
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", version.UserAgent())
	return t.Transport.RoundTrip(req)
}

// NewHTTPClient returns a client with no internal retries. The download workers
// own the retry policy for ranged fetches; retrying inside the transport as well
// would multiply the attempt budget.
func NewHTTPClient(opts Options) *HTTPClient {
	client := &http.Client{
		Transport:     &UserAgentTransport{Transport: baseTransport(opts)},
		CheckRedirect: checkRedirectFunc,
	}
	return &HTTPClient{Client: client}
}

// NewRetryingClient returns a client that retries retryable failures internally
// with jittered exponential backoff. This is used for one-shot metadata requests
// that sit outside the per-chunk retry policy.
func NewRetryingClient(opts Options) *HTTPClient {
	retryClient := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport:     &UserAgentTransport{Transport: baseTransport(opts)},
			CheckRedirect: checkRedirectFunc,
		},
		Logger:       nil,
		RetryWaitMin: retryMinWait,
		RetryWaitMax: retryMaxWait,
		RetryMax:     opts.MaxRetries,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      backoffFunc,
	}
	return &HTTPClient{Client: retryClient.StandardClient()}
}

func baseTransport(opts Options) *http.Transport {
	connTimeout := opts.ConnectTimeout
	if connTimeout <= 0 {
		connTimeout = defaultConnTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: transportDialContext(&net.Dialer{
			Timeout:   connTimeout,
			KeepAlive: 30 * time.Second,
		}, opts.ResolveOverrides),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DisableKeepAlives:     false,
	}
	if opts.MaxConnPerHost > 0 {
		transport.MaxConnsPerHost = opts.MaxConnPerHost
	}
	if opts.ForceHTTP2 {
		transport.TLSClientConfig = &tls.Config{NextProtos: []string{"h2"}}
	}
	return transport
}

// backoffFunc is a wrapper around retryablehttp.DefaultBackoff that allows for adding a random
// jitter to the backoff. We utilize the jitter to avoid thundering herd issues since we are
// running with significant numbers of concurrent fetches.
func backoffFunc(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	sleep := time.Duration(rand.Intn(retrySleepJitter)) * time.Millisecond
	sleep += retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
	return sleep
}

// checkRedirectFunc is a wrapper around http.Client.CheckRedirect that allows for printing out redirects
func checkRedirectFunc(req *http.Request, via []*http.Request) error {
	logging.GetLogger().Trace().
		Str("redirect_url", req.URL.String()).
		Str("url", via[0].URL.String()).
		Int("status", req.Response.StatusCode).
		Msg("Redirect")
	return nil
}

// transportDialContext is a wrapper around net.Dialer that allows for overriding DNS lookups via
// the values passed to the `--resolve` argument.
func transportDialContext(dialer *net.Dialer, overrides map[string]string) func(context.Context, string, string) (net.Conn, error) {
	// Allow for overriding DNS lookups in the dialer without impacting Host and SSL resolution
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		if addrOverride := overrides[addr]; addrOverride != "" {
			logging.GetLogger().Debug().Str("addr", addr).Str("override", addrOverride).Msg("DNS Override")
			addr = addrOverride
		}
		return dialer.DialContext(ctx, network, addr)
	}
}

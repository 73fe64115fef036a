// Package client provides the core Sintel API client: concurrency-gated
// request dispatch, response decoding and error classification.
package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sintelhq/go-sintel/pkg/gate"
	"github.com/sintelhq/go-sintel/pkg/logging"
)

// Version is the client library version, reported in the User-Agent header.
const Version = "0.3.0"

// Default connection parameters.
const (
	DefaultBaseURL    = "https://api.sintel.io"
	DefaultAPIVersion = "v2"

	defaultUserAgent             = "go-sintel/" + Version
	defaultConnectTimeout        = 30 * time.Second
	defaultResponseHeaderTimeout = 30 * time.Second
)

// Config holds the session configuration. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// APIKey authenticates every request (REQUIRED).
	APIKey string

	// BaseURL is the scheme://host[:port] of the API endpoint.
	BaseURL string

	// APIVersion selects the /api/{version}/ path prefix.
	APIVersion string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// TLS is an optional custom TLS configuration.
	TLS *tls.Config

	// ProxyURL routes all requests through an HTTP proxy. Credentials go
	// in the URL userinfo; ProxyHeaders are sent with the CONNECT request.
	ProxyURL     *url.URL
	ProxyHeaders http.Header

	// Timeout bounds a whole call including body consumption. Zero means
	// unbounded, which export and bulk streams require.
	Timeout time.Duration

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers after the
	// request has been written.
	ResponseHeaderTimeout time.Duration

	// Limits overrides the per-operation concurrency ceilings. A value
	// <= 0 lifts the limit for that operation. Operations not listed keep
	// their defaults (everything unlimited except Export, which the API
	// contract serializes).
	Limits map[Operation]int

	// DisableGating replaces every gate with the unlimited variant,
	// including the export gate.
	DisableGating bool

	// RequestsPerSecond throttles the overall request rate across all
	// operations. Zero disables throttling.
	RequestsPerSecond float64

	// HTTPClient overrides the built transport (for testing).
	HTTPClient *http.Client
}

// DefaultConfig returns a configuration with production defaults for the
// given API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:                apiKey,
		BaseURL:               DefaultBaseURL,
		APIVersion:            DefaultAPIVersion,
		ConnectTimeout:        defaultConnectTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
	}
}

// Client is a session against the Sintel API. It owns the connection pool
// and one concurrency gate per operation; both live for the session's
// lifetime. A single Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	apiKey     string
	userAgent  string
	gates      map[Operation]gate.Gate
	limiter    *rate.Limiter
	proxied    bool
	logger     zerolog.Logger
}

// New creates a Client. The gate map and transport are built eagerly here;
// nothing is computed lazily per call.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", base.Scheme)
	}

	logger := logging.NewLogger("sintel-client")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg),
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	logger.Info().Str("base_url", base.String()).Msg("sintel api client configured")
	if cfg.ProxyURL != nil {
		logger.Info().Str("proxy", cfg.ProxyURL.Redacted()).Msg("sintel api client using proxy")
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base.String(),
		apiVersion: cfg.APIVersion,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		gates:      buildGates(cfg),
		limiter:    limiter,
		proxied:    cfg.ProxyURL != nil,
		logger:     logger,
	}, nil
}

// newTransport builds the connection pool from the resolved connection
// parameters.
func newTransport(cfg Config) *http.Transport {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	headerTimeout := cfg.ResponseHeaderTimeout
	if headerTimeout <= 0 {
		headerTimeout = defaultResponseHeaderTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		TLSClientConfig:       cfg.TLS,
		ResponseHeaderTimeout: headerTimeout,
		MaxIdleConnsPerHost:   8,
	}
	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
		transport.ProxyConnectHeader = cfg.ProxyHeaders
	}
	return transport
}

// buildGates materializes one gate per operation: the configured limits
// overlaid on the defaults, or the unlimited variant everywhere when gating
// is disabled.
func buildGates(cfg Config) map[Operation]gate.Gate {
	limits := make(map[Operation]int, len(defaultLimits)+len(cfg.Limits))
	for op, n := range defaultLimits {
		limits[op] = n
	}
	for op, n := range cfg.Limits {
		limits[op] = n
	}

	gates := make(map[Operation]gate.Gate, numOperations)
	for _, op := range Operations() {
		n, ok := limits[op]
		if cfg.DisableGating || !ok || n <= 0 {
			gates[op] = gate.Unlimited()
			continue
		}
		gates[op] = gate.NewLimited(n)
	}
	return gates
}

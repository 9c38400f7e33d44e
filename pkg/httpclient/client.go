package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrymomot/flagsync/pkg/logger"
)

// Identity headers sent with every request.
const (
	HeaderAppName    = "UNLEASH-APPNAME"
	HeaderInstanceID = "UNLEASH-INSTANCEID"
	HeaderUserAgent  = "User-Agent"
)

// HeaderFunc computes custom headers per request. When set it replaces the
// static custom headers entirely.
type HeaderFunc func(ctx context.Context) (map[string]string, error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying *http.Client, for example one with a
// custom transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout. Zero, the default, means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithInstanceID sets the instance identifier header value.
func WithInstanceID(id string) Option {
	return func(c *Client) {
		c.instanceID = id
	}
}

// WithHeaders sets static custom headers.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		c.headers = maps.Clone(h)
	}
}

// WithHeaderFunc sets a function computing custom headers per request.
func WithHeaderFunc(fn HeaderFunc) Option {
	return func(c *Client) {
		c.headerFunc = fn
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client sends requests to the toggle service with identity and custom headers.
type Client struct {
	baseURL    string
	appName    string
	instanceID string
	headers    map[string]string
	headerFunc HeaderFunc
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger

	rc *resty.Client
}

// New creates a client for the toggle service at rawURL.
func New(rawURL, appName string, opts ...Option) (*Client, error) {
	base, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(appName) == "" {
		return nil, ErrMissingAppName
	}

	c := &Client{
		baseURL:    base,
		appName:    appName,
		instanceID: appName,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("httpclient"))

	if c.httpClient != nil {
		c.rc = resty.NewWithClient(c.httpClient)
	} else {
		c.rc = resty.New()
	}
	c.rc.SetBaseURL(strings.TrimSuffix(base, "/"))
	c.rc.SetLogger(restyLogger{c.logger})
	c.rc.SetHeader(HeaderAppName, c.appName)
	c.rc.SetHeader(HeaderInstanceID, c.instanceID)
	c.rc.SetHeader(HeaderUserAgent, c.appName)
	if c.timeout > 0 {
		c.rc.SetTimeout(c.timeout)
	}

	return c, nil
}

// BaseURL returns the normalized base URL, always ending with a slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AppName returns the application name sent with every request.
func (c *Client) AppName() string {
	return c.appName
}

// InstanceID returns the instance identifier sent with every request.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// Endpoint resolves path against the base URL.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + strings.TrimPrefix(path, "/")
}

// R returns a request bound to ctx carrying the custom headers. Identity
// headers are set on the client and may be overridden by custom headers.
func (c *Client) R(ctx context.Context) (*resty.Request, error) {
	headers := c.headers
	if c.headerFunc != nil {
		h, err := c.headerFunc(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrHeaderFunc, err)
		}
		headers = h
	}
	return c.rc.R().SetContext(ctx).SetHeaders(headers), nil
}

// NormalizeURL validates a toggle service URL and returns it with a trailing
// slash. A trailing "/features" path segment, a common misconfiguration, is
// stripped.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is empty", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	path := strings.TrimSuffix(u.Path, "/")
	path = strings.TrimSuffix(path, "/features")
	u.Path = path + "/"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// restyLogger adapts slog to resty.Logger.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

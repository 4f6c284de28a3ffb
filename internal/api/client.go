package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/opsdash/internal/log"
)

// defaultTimeout is used when no timeout option is given.
const defaultTimeout = 30 * time.Second

// Client talks to the dashboard backend.
// A Client is safe for concurrent use; controllers share one instance.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger

	timeout      time.Duration
	cookie       string
	headers      map[string]string
	proxyAddress string
	userAgent    string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCookie sets a raw cookie string sent with every request,
// e.g. "session=abc123".
func WithCookie(cookie string) Option {
	return func(c *Client) {
		c.cookie = cookie
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithProxy routes every request through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client. Cookie, header and proxy options
// are ignored when it is set; tests use it to talk to httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the backend at baseURL.
//
// The constructor does not contact the backend. The first request reveals
// whether the address and cookie are usable.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	c := &Client{
		baseURL: u,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.NewDiscardLogger()
	}

	if c.httpClient == nil {
		hc, err := c.newHTTPClient()
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds the default HTTP client.
//
// Design decisions:
//   - A cookie jar keeps any cookie the backend sets (it refreshes the
//     session cookie on some replies), on top of the configured cookie.
//   - Redirects are not followed. The backend answers an expired login with
//     a redirect to its HTML login page, which is useless to a JSON client;
//     the 3xx is surfaced as an HTTPError instead.
func (c *Client) newHTTPClient() (*http.Client, error) {
	base, err := newTransport(c.proxyAddress)
	if err != nil {
		return nil, err
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: &headerInjectingTransport{
			base:      base,
			cookie:    c.cookie,
			headers:   c.headers,
			userAgent: c.userAgent,
		},
		Timeout: c.timeout,
		Jar:     jar,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ResolveURL turns a server-relative path such as an image URL from a
// result payload into an absolute URL on the backend.
func (c *Client) ResolveURL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.baseURL.ResolveReference(ref).String()
}

// endpoint builds the URL for path with an optional query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// sessionPath joins a path prefix with escaped path segments, e.g.
// sessionPath("/feature3/download_image", sid, name).
func sessionPath(prefix string, segments ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

func (c *Client) String() string {
	return fmt.Sprintf("api.Client(%s)", c.baseURL)
}

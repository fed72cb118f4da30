// Package classcharts implements a session-authenticated client for the
// ClassCharts student API. The backend issues an opaque session token on
// login, rotates it on heartbeats, and reports expiry inside HTTP 200
// bodies; the client hides all of that behind typed operations.
package classcharts

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chartsbridge/internal/domain"
)

// DefaultBaseURL is the production ClassCharts student API root.
const DefaultBaseURL = "https://www.classcharts.com/apiv2student"

// DefaultRefreshInterval is how long a token is trusted after a successful
// login or heartbeat. 180 seconds sits safely inside the backend's observed
// session window.
const DefaultRefreshInterval = 180 * time.Second

// recaptchaPlaceholder is sent in place of a CAPTCHA token; the student login
// endpoint accepts it.
const recaptchaPlaceholder = "no-token-available"

// EventKind identifies a session lifecycle event.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventRefresh EventKind = "refresh"
	EventExpired EventKind = "expired"
	EventLogout  EventKind = "logout"
)

// Publisher receives session lifecycle notifications. Implementations must
// not block; the client calls Publish inline on its request paths.
type Publisher interface {
	Publish(kind EventKind)
}

// Config holds client construction options.
type Config struct {
	// BaseURL overrides DefaultBaseURL (used by tests and mock backends).
	BaseURL string

	// RefreshInterval overrides DefaultRefreshInterval.
	RefreshInterval time.Duration

	// HTTPClient overrides the default HTTP client. The default applies a
	// 15 second per-request timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Events, when set, receives session lifecycle notifications.
	Events Publisher
}

// Client is the ClassCharts session client. One instance owns one pupil
// session; all methods are safe for concurrent use.
type Client struct {
	baseURL         string
	refreshInterval time.Duration
	httpc           *http.Client
	logger          *slog.Logger
	events          Publisher
	now             func() time.Time

	mu      sync.Mutex
	session domain.Session

	// refreshGroup coalesces concurrent heartbeats into one in-flight call
	// so a burst of stale operations does not stampede the backend.
	refreshGroup singleflight.Group
}

// New creates a Client from cfg. Zero-value fields get defaults.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		refreshInterval: cfg.RefreshInterval,
		httpc:           cfg.HTTPClient,
		logger:          cfg.Logger,
		events:          cfg.Events,
		now:             time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.refreshInterval <= 0 {
		c.refreshInterval = DefaultRefreshInterval
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Session returns a copy of the current session state.
func (c *Client) Session() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Logout drops the in-memory session. Clearing saved credentials is the
// caller's decision.
func (c *Client) Logout() {
	c.mu.Lock()
	c.session = domain.Session{}
	c.mu.Unlock()
	c.publish(EventLogout)
}

func (c *Client) publish(kind EventKind) {
	if c.events != nil {
		c.events.Publish(kind)
	}
}

// token returns the current session token, or "" when logged out.
func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Token
}

// endpoint builds an absolute URL for path with optional query parameters.
func (c *Client) endpoint(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", &RequestError{Op: "build url", Err: err}
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// readBody drains and closes an HTTP response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "read response", Err: err}
	}
	return body, nil
}

// Package fetcher retrieves remote article HTML under the guardrails the
// rest of the pipeline depends on: a domain allowlist, robots.txt policy,
// a hard byte cap, and a content-type check.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/temoto/robotstxt"

	"newssum/config"
)

// Reason codes carried by FetchError.
const (
	ReasonDomainNotAllowed     = "domain_not_allowed"
	ReasonBlockedByRobots      = "blocked_by_robots"
	ReasonPageTooLarge         = "page_too_large"
	ReasonUnsupportedMediaType = "unsupported_media_type"
	ReasonFetchFailed          = "fetch_failed"
)

// FetchError is a typed guardrail rejection or transport failure. Status
// suggests the HTTP status the transport layer should map it to.
type FetchError struct {
	Reason string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FetchError) Unwrap() error { return e.Err }

// Gate validates and retrieves remote content. The allowlist snapshot is
// swapped atomically by Reload so in-flight requests keep a consistent view.
type Gate struct {
	allowlist atomic.Pointer[config.Allowlist]
	client    *http.Client
	userAgent string
	maxBytes  int64
	log       *slog.Logger
}

// New constructs a fetch gate with the given allowlist snapshot.
func New(allow *config.Allowlist, timeout time.Duration, log *slog.Logger) *Gate {
	g := &Gate{
		client:    &http.Client{Timeout: timeout},
		userAgent: config.UserAgent,
		maxBytes:  config.MaxFetchBytes,
		log:       log,
	}
	g.allowlist.Store(allow)
	return g
}

// Reload swaps in a fresh allowlist snapshot.
func (g *Gate) Reload(allow *config.Allowlist) {
	g.allowlist.Store(allow)
}

// AllowlistSize reports the current snapshot size.
func (g *Gate) AllowlistSize() int {
	return g.allowlist.Load().Size()
}

// Fetch retrieves the HTML document at rawURL. It never performs a network
// request for a host outside the allowlist. All failures return *FetchError.
func (g *Gate) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "", &FetchError{Reason: ReasonFetchFailed, Status: http.StatusBadRequest, Err: fmt.Errorf("invalid url %q", rawURL)}
	}

	host := strings.ToLower(u.Hostname())
	if !g.allowlist.Load().Allows(host) {
		g.log.Info("domain_denied", "host", host, "allowlist_size", g.AllowlistSize())
		return "", &FetchError{Reason: ReasonDomainNotAllowed, Status: http.StatusForbidden}
	}

	if !g.robotsAllow(ctx, u) {
		return "", &FetchError{Reason: ReasonBlockedByRobots, Status: http.StatusForbidden}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", &FetchError{Reason: ReasonFetchFailed, Status: http.StatusBadGateway, Err: err}
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &FetchError{Reason: ReasonFetchFailed, Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{
			Reason: fmt.Sprintf("http_%d", resp.StatusCode),
			Status: http.StatusBadRequest,
		}
	}

	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ctype, "text/html") && !strings.Contains(ctype, "application/xhtml+xml") {
		return "", &FetchError{Reason: ReasonUnsupportedMediaType, Status: http.StatusUnsupportedMediaType}
	}

	// Stream with a cap of maxBytes+1: reading one extra byte is how we
	// detect overflow without buffering the rest of the body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return "", &FetchError{Reason: ReasonFetchFailed, Status: http.StatusBadGateway, Err: err}
	}
	if int64(len(body)) > g.maxBytes {
		return "", &FetchError{Reason: ReasonPageTooLarge, Status: http.StatusRequestEntityTooLarge}
	}

	return string(body), nil
}

// robotsAllow consults the site's robots.txt for our user agent. Any
// failure to fetch or parse the robots file is permissive: a transient
// robots error must not block legitimate content.
func (g *Gate) robotsAllow(ctx context.Context, u *url.URL) bool {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return true
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, data)
	if err != nil {
		return true
	}

	return robots.FindGroup(g.userAgent).Test(u.Path)
}

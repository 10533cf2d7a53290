package fetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"newssum/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGate(t *testing.T, domains []string) *Gate {
	t.Helper()
	return New(config.NewAllowlist(domains), 5*time.Second, discardLogger())
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	return fe.Reason
}

func TestFetchRejectsUnlistedDomainWithoutNetwork(t *testing.T) {
	g := testGate(t, []string{"example.com"})

	// A network attempt against this host would surface fetch_failed; the
	// allowlist rejection proves no request was made.
	_, err := g.Fetch(context.Background(), "https://definitely-not-allowed.invalid/story")
	if got := reasonOf(t, err); got != ReasonDomainNotAllowed {
		t.Fatalf("reason = %q, want %q", got, ReasonDomainNotAllowed)
	}
}

func TestFetchServesAllowedHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<html><body>article body</body></html>")
	}))
	defer srv.Close()

	host := hostOnly(t, srv.URL)
	g := testGate(t, []string{host})

	html, err := g.Fetch(context.Background(), srv.URL+"/story")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(html, "article body") {
		t.Fatalf("body = %q", html)
	}
}

func TestFetchHonorsRobotsDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			io.WriteString(w, "User-agent: *\nDisallow: /private\n")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	g := testGate(t, []string{hostOnly(t, srv.URL)})

	if _, err := g.Fetch(context.Background(), srv.URL+"/private/story"); reasonOf(t, err) != ReasonBlockedByRobots {
		t.Fatalf("expected robots rejection, got %v", err)
	}

	if _, err := g.Fetch(context.Background(), srv.URL+"/public/story"); err != nil {
		t.Fatalf("allowed path should fetch: %v", err)
	}
}

func TestFetchRobotsFailureIsPermissive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	g := testGate(t, []string{hostOnly(t, srv.URL)})
	if _, err := g.Fetch(context.Background(), srv.URL+"/story"); err != nil {
		t.Fatalf("robots 500 must not block content: %v", err)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "%PDF-1.4")
	}))
	defer srv.Close()

	g := testGate(t, []string{hostOnly(t, srv.URL)})
	if _, err := g.Fetch(context.Background(), srv.URL+"/doc"); reasonOf(t, err) != ReasonUnsupportedMediaType {
		t.Fatalf("expected media-type rejection, got %v", err)
	}
}

func TestFetchRejectsOversizedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			return
		}
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, strings.Repeat("x", 256))
	}))
	defer srv.Close()

	g := testGate(t, []string{hostOnly(t, srv.URL)})
	g.maxBytes = 128

	if _, err := g.Fetch(context.Background(), srv.URL+"/huge"); reasonOf(t, err) != ReasonPageTooLarge {
		t.Fatalf("expected size rejection, got %v", err)
	}
}

func TestFetchMapsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := testGate(t, []string{hostOnly(t, srv.URL)})
	if _, err := g.Fetch(context.Background(), srv.URL+"/gone"); reasonOf(t, err) != "http_404" {
		t.Fatalf("expected http_404, got %v", err)
	}
}

func TestReloadSwapsAllowlist(t *testing.T) {
	g := testGate(t, []string{"old.com"})
	if g.AllowlistSize() != 1 {
		t.Fatalf("size = %d", g.AllowlistSize())
	}

	g.Reload(config.NewAllowlist([]string{"a.com", "b.com"}))
	if g.AllowlistSize() != 2 {
		t.Fatalf("size after reload = %d", g.AllowlistSize())
	}

	if _, err := g.Fetch(context.Background(), "https://old.com/x"); reasonOf(t, err) != ReasonDomainNotAllowed {
		t.Fatal("old snapshot must be gone after reload")
	}
}

func hostOnly(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %q: %v", rawURL, err)
	}
	return u.Hostname()
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"newssum/analysis"
	"newssum/cache"
	"newssum/config"
	"newssum/costs"
	"newssum/fetcher"
	"newssum/summarizer"
	"newssum/telemetry"
	"newssum/types"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, string, string, string) summarizer.Result {
	return summarizer.Result{
		Summary:      "The committee voted to adopt the proposal. Members cited broad public support. Implementation begins next quarter.",
		ModelVersion: "stub:model@sum_v1",
	}
}
func (stubSummarizer) PrimaryVersion() string     { return "stub:model@sum_v1" }
func (stubSummarizer) TranslationVersion() string { return "" }

type stubSentiment struct{}

func (stubSentiment) Classify(context.Context, string) (string, float64, string, error) {
	return "positive", 0.9, "stub@sent_v1", nil
}
func (stubSentiment) ModelVersion() string { return "stub@sent_v1" }

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.NewMemory()

	pipeline := analysis.New(analysis.Deps{
		Fetcher:   fetcher.New(config.NewAllowlist(nil), time.Second, log),
		Cache:     store,
		Summary:   stubSummarizer{},
		Sentiment: stubSentiment{},
		Pricing:   costs.DefaultTable(),
		Metrics:   telemetry.NewMetrics(),
		Sampler:   telemetry.NewSampler(0),
		Log:       log,
		CacheTTL:  time.Hour,
	})

	return NewRouter(RouterDeps{
		Pipeline: pipeline,
		Cache:    store,
		Gate:     fetcher.New(config.NewAllowlist(nil), time.Second, log),
		Metrics:  telemetry.NewMetrics(),
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := testRouter(t)

	body := `{"text": "The committee voted to adopt the proposal after a long debate."}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Sentiment != "positive" {
		t.Fatalf("sentiment = %q", result.Sentiment)
	}
	if result.ID == "" {
		t.Fatal("missing result ID")
	}
	if result.CacheHit {
		t.Fatal("first request must not be a cache hit")
	}
}

func TestAnalyzeEndpointRejectsAmbiguousSource(t *testing.T) {
	router := testRouter(t)

	body := `{"url": "https://example.com/a", "text": "also text"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "exactly one of") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestAnalyzeEndpointMapsGuardrailRejection(t *testing.T) {
	router := testRouter(t)

	// Empty allowlist: every domain is denied.
	body := `{"url": "https://example.com/story"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "domain_not_allowed") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ops/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var payload struct {
		Counters map[string]int64 `json:"counters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
}

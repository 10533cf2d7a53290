// Package analysis is the orchestration pipeline: it turns a raw input
// (URL, HTML, or text) into a cached, versioned, fallback-tolerant
// analysis result.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"newssum/cache"
	"newssum/config"
	"newssum/costs"
	"newssum/fetcher"
	"newssum/normalizer"
	"newssum/storage"
	"newssum/summarizer"
	"newssum/telemetry"
	"newssum/types"
)

// RequestError is a terminal pipeline failure with a transport-level hint.
type RequestError struct {
	Code   string
	Status int
}

func (e *RequestError) Error() string { return e.Code }

// Fetcher retrieves remote HTML under the guardrail gate.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Summarizer is the fallback orchestrator contract the pipeline needs.
type Summarizer interface {
	Summarize(ctx context.Context, text, lang, title string) summarizer.Result
	PrimaryVersion() string
	TranslationVersion() string
}

// SentimentGate classifies text; invocation failure is terminal.
type SentimentGate interface {
	Classify(ctx context.Context, text string) (label string, confidence float64, modelVersion string, err error)
	ModelVersion() string
}

// History persists computed analyses. Failures are logged, never surfaced.
type History interface {
	StoreAnalysis(ctx context.Context, rec storage.AnalysisRecord) error
}

// Deps wires all collaborators into the pipeline.
type Deps struct {
	Fetcher   Fetcher
	Cache     cache.Store
	Summary   Summarizer
	Sentiment SentimentGate
	Pricing   *costs.Table
	History   History
	Archiver  *storage.Archiver
	Publisher *telemetry.Publisher
	Metrics   *telemetry.Metrics
	Sampler   *telemetry.Sampler
	Log       *slog.Logger
	CacheTTL  time.Duration
}

// Pipeline handles analyze requests. Each request is independent; the
// cache and metrics registry are the only shared mutable state.
type Pipeline struct {
	deps Deps
}

// New constructs the pipeline.
func New(deps Deps) *Pipeline {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = config.DefaultCacheTTL
	}
	if deps.Sampler == nil {
		deps.Sampler = telemetry.NewSampler(1)
	}
	return &Pipeline{deps: deps}
}

// Analyze runs the full pipeline: guardrail fetch, normalization, cache
// lookup, summarization with fallbacks, sentiment gate, cost accounting,
// cache store, and fire-and-forget persistence.
func (p *Pipeline) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	start := time.Now()

	if req.SourceCount() != 1 {
		return nil, &RequestError{Code: "provide exactly one of url|html|text", Status: http.StatusBadRequest}
	}
	lang := resolveLang(req.Lang)

	content, sourceURL, err := p.normalize(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content.Text) == "" {
		return nil, &RequestError{Code: "empty_text", Status: http.StatusBadRequest}
	}

	fingerprint := normalizer.Fingerprint(content.Text)

	transVersion := ""
	if lang == "es" {
		transVersion = p.deps.Summary.TranslationVersion()
	}
	key := cache.Key(fingerprint, lang, p.deps.Summary.PrimaryVersion(), p.deps.Sentiment.ModelVersion(), transVersion)

	if result, ok := p.replay(ctx, key, start); ok {
		return result, nil
	}

	sum := p.deps.Summary.Summarize(ctx, content.Text, lang, content.Title)

	// The summary is the densest sentiment signal; fall back to the
	// snippet or raw text when a tier produced nothing.
	target := sum.Summary
	if strings.TrimSpace(target) == "" {
		target = content.Snippet
	}
	if strings.TrimSpace(target) == "" {
		target = content.Text
	}

	label, confidence, sentVersion, err := p.deps.Sentiment.Classify(ctx, target)
	if err != nil {
		p.deps.Log.Error("sentiment classification failed", "error", err)
		return nil, &RequestError{Code: "sentiment_error", Status: http.StatusBadGateway}
	}

	modelVersion := sum.ModelVersion + "|sent:" + sentVersion
	if sum.Translated && transVersion != "" {
		modelVersion += "|trans:" + transVersion
	}

	costCents := p.deps.Pricing.EstimateCents(
		types.ModelKey(sum.ModelVersion),
		sum.Usage.InputTokens, sum.Usage.OutputTokens, sum.Usage.CachedInputTokens,
	)

	result := &types.AnalysisResult{
		ID:           uuid.NewString(),
		Summary:      sum.Summary,
		KeySentences: summarizer.KeySentences(sum.Summary, config.KeySentenceCount),
		Sentiment:    label,
		Confidence:   confidence,
		Tokens:       sum.Usage.Total(),
		LatencyMS:    time.Since(start).Milliseconds(),
		CostCents:    costCents,
		ModelVersion: modelVersion,
		CacheHit:     false,
	}

	p.store(ctx, key, result)
	p.persist(content, sourceURL, lang, fingerprint, result)
	p.observe(result, content.Domain, lang)

	return result, nil
}

// normalize resolves the request's single source into normalized content.
func (p *Pipeline) normalize(ctx context.Context, req types.AnalysisRequest) (types.NormalizedContent, string, error) {
	switch {
	case strings.TrimSpace(req.URL) != "":
		sourceURL := normalizer.NormalizeURL(req.URL)
		html, err := p.deps.Fetcher.Fetch(ctx, sourceURL)
		if err != nil {
			var fe *fetcher.FetchError
			if errors.As(err, &fe) {
				return types.NormalizedContent{}, "", &RequestError{Code: fe.Reason, Status: fe.Status}
			}
			return types.NormalizedContent{}, "", &RequestError{Code: fetcher.ReasonFetchFailed, Status: http.StatusBadGateway}
		}
		return normalizer.FromHTML(html, hostOf(sourceURL)), sourceURL, nil

	case strings.TrimSpace(req.HTML) != "":
		return normalizer.FromHTML(req.HTML, "local"), "", nil

	default:
		return normalizer.FromText(req.Text, "local"), "", nil
	}
}

// replay serves a cached payload, overwriting only the fields that belong
// to this read. An unparseable entry is evicted and treated as a miss.
func (p *Pipeline) replay(ctx context.Context, key string, start time.Time) (*types.AnalysisResult, bool) {
	payload, ok := p.deps.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		p.deps.Log.Warn("evicting unparseable cache entry", "key", key, "error", err)
		p.deps.Cache.Delete(ctx, key)
		return nil, false
	}

	result.CacheHit = true
	result.LatencyMS = time.Since(start).Milliseconds()

	p.deps.Metrics.Inc("analyze_requests_total", 1)
	p.deps.Metrics.Inc("analyze_cache_hits_total", 1)
	p.deps.Metrics.ObserveMS("analyze_latency_ms", float64(result.LatencyMS))
	if p.deps.Sampler.Should() {
		p.deps.Log.Info("analyze",
			"cache_hit", true,
			"latency_ms", result.LatencyMS,
			"model_version", result.ModelVersion)
	}
	return &result, true
}

func (p *Pipeline) store(ctx context.Context, key string, result *types.AnalysisResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		p.deps.Log.Warn("cache payload marshal failed", "error", err)
		return
	}
	p.deps.Cache.Set(ctx, key, payload, p.deps.CacheTTL)
}

// persist hands the result to the durable stores in the background. A
// request-scoped context would cancel mid-write once the response is sent,
// so these use their own deadline.
func (p *Pipeline) persist(content types.NormalizedContent, sourceURL, lang, fingerprint string, result *types.AnalysisResult) {
	rec := storage.AnalysisRecord{
		ID:           result.ID,
		URL:          sourceURL,
		Domain:       content.Domain,
		Title:        content.Title,
		Lang:         lang,
		PubTime:      content.PubTime,
		Snippet:      content.Snippet,
		TextHash:     fingerprint,
		Summary:      result.Summary,
		Sentiment:    result.Sentiment,
		Confidence:   result.Confidence,
		CostCents:    result.CostCents,
		ModelVersion: result.ModelVersion,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if p.deps.History != nil {
			if err := p.deps.History.StoreAnalysis(ctx, rec); err != nil {
				p.deps.Log.Warn("analysis persistence failed", "id", rec.ID, "error", err)
			}
		}
		p.deps.Archiver.Archive(ctx, rec)
	}()
}

func (p *Pipeline) observe(result *types.AnalysisResult, domain, lang string) {
	p.deps.Metrics.Inc("analyze_requests_total", 1)
	p.deps.Metrics.ObserveMS("analyze_latency_ms", float64(result.LatencyMS))

	p.deps.Publisher.Publish(telemetry.AnalyzeEvent{
		ID:           result.ID,
		Domain:       domain,
		Lang:         lang,
		Sentiment:    result.Sentiment,
		ModelVersion: result.ModelVersion,
		CacheHit:     false,
		LatencyMS:    result.LatencyMS,
		CostCents:    result.CostCents,
		Tokens:       result.Tokens,
	})

	if p.deps.Sampler.Should() {
		p.deps.Log.Info("analyze",
			"request_id", result.ID,
			"domain", domain,
			"lang", lang,
			"model_version", result.ModelVersion,
			"cache_hit", false,
			"latency_ms", result.LatencyMS,
			"cost_cents", result.CostCents,
			"tokens", result.Tokens)
	}
}

func resolveLang(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "es":
		return "es"
	default:
		// "en", "auto", and absent all summarize as English input.
		return "en"
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "local"
	}
	return strings.ToLower(u.Hostname())
}

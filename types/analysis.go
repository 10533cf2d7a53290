package types

import "strings"

// AnalysisRequest is the inbound payload for an analyze call.
// Exactly one of URL, HTML, or Text must be set.
type AnalysisRequest struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
	Text string `json:"text,omitempty"`
	Lang string `json:"lang,omitempty"` // "en", "es", or "auto"
}

// SourceCount returns how many source fields are populated.
func (r AnalysisRequest) SourceCount() int {
	n := 0
	if strings.TrimSpace(r.URL) != "" {
		n++
	}
	if strings.TrimSpace(r.HTML) != "" {
		n++
	}
	if strings.TrimSpace(r.Text) != "" {
		n++
	}
	return n
}

// NormalizedContent is the canonical form of an article produced once per
// request and immutable afterward.
type NormalizedContent struct {
	Text    string `json:"text"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet"`
	PubTime string `json:"pub_time,omitempty"` // ISO 8601 when known
	Domain  string `json:"domain"`
}

// TokenUsage records prompt/completion token counts from a generative call.
type TokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	CachedInputTokens int `json:"cached_input_tokens,omitempty"`
}

// Total returns the combined token count.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CachedInputTokens
}

// AnalysisResult is the final analyze payload. A cache replay returns the
// stored payload with CacheHit and LatencyMS overwritten for the current
// read; every other field (ID included) is whatever was true at compute
// time so that replays stay byte-comparable.
type AnalysisResult struct {
	ID           string   `json:"id"`
	Summary      string   `json:"summary"`
	KeySentences []string `json:"key_sentences"`
	Sentiment    string   `json:"sentiment"` // positive | neutral | negative
	Confidence   float64  `json:"confidence"`
	Tokens       int      `json:"tokens"`
	LatencyMS    int64    `json:"latency_ms"`
	CostCents    int      `json:"costs_cents"`
	ModelVersion string   `json:"model_version"`
	CacheHit     bool     `json:"cache_hit"`
}

// ModelKey strips the @variant suffix from a provider:model@variant tag.
// The result is the identity used for price-table lookups.
func ModelKey(versionTag string) string {
	if i := strings.Index(versionTag, "@"); i >= 0 {
		return versionTag[:i]
	}
	return versionTag
}

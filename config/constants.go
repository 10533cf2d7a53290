package config

import "time"

// Input and normalization constants
const (
	// MaxInputChars caps normalized article text before summarization
	MaxInputChars = 8000

	// SnippetChars is the length of the stored snippet
	SnippetChars = 240

	// MaxFetchBytes aborts a fetch once the accumulated body exceeds this size
	MaxFetchBytes = 2_500_000
)

// Cache constants
const (
	// SchemaVersion participates in every cache key; bumping it invalidates
	// all prior entries without an explicit purge
	SchemaVersion = "v1.1"

	// DefaultCacheTTL is how long a computed analysis stays servable
	DefaultCacheTTL = 72 * time.Hour

	// MaxCachePayloadBytes skips caching for oversized payloads
	MaxCachePayloadBytes = 500_000

	// PruneBatchLimit bounds one opportunistic prune pass
	PruneBatchLimit = 1000
)

// Summarization constants
const (
	// PromptCharCap trims article text before prompt construction
	PromptCharCap = 4000

	// PromptMaxSentences limits how many leading sentences enter the prompt
	PromptMaxSentences = 10

	// MinSummaryChars is the quality-gate acceptance threshold
	MinSummaryChars = 80

	// LeadSentences is how many sentences the extractive fallback takes
	LeadSentences = 3

	// LeadMaxWords bounds the extractive fallback output
	LeadMaxWords = 180

	// KeySentenceCount is how many summary sentences the response echoes
	KeySentenceCount = 3
)

// Sentiment gate constants
const (
	// UncertainThreshold is the minimum argmax probability the classifier
	// must reach before its label is trusted
	UncertainThreshold = 0.4

	// PolarityDelta triggers ties-to-neutral when the positive and negative
	// probabilities are this close
	PolarityDelta = 0.08

	// LexiconPositive and LexiconNegative are the fixed compound-score
	// thresholds for the lexicon fallback
	LexiconPositive = 0.25
	LexiconNegative = -0.25
)

// UserAgent identifies this service to remote sites and their robots.txt.
const UserAgent = "newssum/1.0 (+contact: ops@newssum.dev)"

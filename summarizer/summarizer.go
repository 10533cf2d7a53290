// Package summarizer drives a primary generative summarizer with ordered
// fallbacks. Providers are an explicit strategy list tried in order until
// one yields an accepted result; the terminal extractive tier cannot fail,
// so the orchestrator never surfaces a transient provider error.
package summarizer

import (
	"context"
	"log/slog"
	"strings"

	"newssum/config"
	"newssum/types"
)

// Provider is one generative summarization strategy.
type Provider interface {
	// Name identifies the tier in logs.
	Name() string
	// ModelVersion is the provider:model@variant tag fed into the cache key
	// and the cost table.
	ModelVersion() string
	// Generate produces raw summary text for a prompt. Transient failures
	// return an error; the orchestrator advances to the next tier.
	Generate(ctx context.Context, prompt string) (string, types.TokenUsage, error)
}

// Translator is the translation capability used for Spanish input before
// prompt construction.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	ModelVersion() string
}

// Result is the accepted output of one tier.
type Result struct {
	Summary      string
	ModelVersion string
	Usage        types.TokenUsage
	// Translated reports whether the translation pre-step actually ran.
	Translated bool
}

// Orchestrator iterates the provider list with a post-hoc quality gate and
// a single bounded retry-with-stricter-prompt per tier.
type Orchestrator struct {
	providers  []Provider
	translator Translator
	log        *slog.Logger
}

// New builds an orchestrator. A nil translator disables the pre-step.
func New(providers []Provider, translator Translator, log *slog.Logger) *Orchestrator {
	return &Orchestrator{providers: providers, translator: translator, log: log}
}

// PrimaryVersion is the configured first-tier tag. The cache key pins this
// regardless of which tier ends up answering, so a fallback-served result
// is replaced as soon as the primary recovers and the entry expires.
func (o *Orchestrator) PrimaryVersion() string {
	if len(o.providers) == 0 {
		return LeadModelVersion
	}
	return o.providers[0].ModelVersion()
}

// TranslationVersion returns the configured translation tag, or "" when no
// translator is wired.
func (o *Orchestrator) TranslationVersion() string {
	if o.translator == nil {
		return ""
	}
	return o.translator.ModelVersion()
}

// Summarize produces a summary for the normalized text. It always returns
// a result: when every generative tier is exhausted the extractive fallback
// answers, empty only for empty input. Translation failure for Spanish text
// is deliberate best-effort: the original-language text is summarized and
// the result is tagged as untranslated.
func (o *Orchestrator) Summarize(ctx context.Context, text, lang, title string) Result {
	translated := false
	if lang == "es" && o.translator != nil {
		out, err := o.translator.Translate(ctx, text)
		if err != nil {
			o.log.Warn("translate_failed, summarizing untranslated text", "error", err)
		} else if strings.TrimSpace(out) != "" {
			text = out
			translated = true
		}
	}

	budgeted := promptBudget(text)

	for _, p := range o.providers {
		res, ok := o.tryProvider(ctx, p, budgeted, title)
		if ok {
			res.Translated = translated
			return res
		}
	}

	return Result{
		Summary:      Lead(title, text),
		ModelVersion: LeadModelVersion,
		Translated:   translated,
	}
}

// tryProvider runs one tier through the quality gate, retrying exactly once
// with the stricter re-prompt before falling through.
func (o *Orchestrator) tryProvider(ctx context.Context, p Provider, text, title string) (Result, bool) {
	summary, usage, err := p.Generate(ctx, BuildPrompt(text, title, false))
	if err != nil {
		o.log.Warn("summary tier failed", "tier", p.Name(), "error", err)
		return Result{}, false
	}

	summary = PostProcess(summary, title)
	if acceptable(summary) {
		return Result{Summary: summary, ModelVersion: p.ModelVersion(), Usage: usage}, true
	}

	o.log.Info("summary below quality gate, retrying stricter", "tier", p.Name(), "chars", len(summary))
	retry, retryUsage, err := p.Generate(ctx, BuildPrompt(text, title, true))
	if err != nil {
		o.log.Warn("summary retry failed", "tier", p.Name(), "error", err)
		return Result{}, false
	}

	usage.InputTokens += retryUsage.InputTokens
	usage.OutputTokens += retryUsage.OutputTokens
	usage.CachedInputTokens += retryUsage.CachedInputTokens

	retry = PostProcess(retry, title)
	if acceptable(retry) {
		return Result{Summary: retry, ModelVersion: p.ModelVersion(), Usage: usage}, true
	}
	return Result{}, false
}

func acceptable(summary string) bool {
	return len(strings.TrimSpace(summary)) >= config.MinSummaryChars
}

// BuildPrompt assembles the summarization prompt from the budgeted article
// text, with the title injected as lede context. The strict variant is the
// single bounded retry used after a quality-gate failure.
func BuildPrompt(text, title string, strict bool) string {
	var b strings.Builder
	if strict {
		b.WriteString("Summarize this news article in exactly 3 sentences. ")
		b.WriteString("State who did what first, then the key consequence. ")
		b.WriteString("No preamble.")
	} else {
		b.WriteString("You are a precise news summarizer. ")
		b.WriteString("Write a neutral, faithful summary of 80-140 words.")
	}
	if title != "" {
		b.WriteString("\n\nTITLE:\n")
		b.WriteString(title)
	}
	b.WriteString("\n\nARTICLE:\n")
	b.WriteString(text)
	return b.String()
}

// promptBudget trims input to the first sentences that fit the prompt cap.
func promptBudget(text string) string {
	sents := SplitSentences(text)
	if len(sents) > config.PromptMaxSentences {
		sents = sents[:config.PromptMaxSentences]
	}
	joined := strings.Join(sents, " ")
	if len(joined) > config.PromptCharCap {
		joined = joined[:config.PromptCharCap]
	}
	return joined
}

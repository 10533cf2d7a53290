package summarizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"newssum/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider returns the scripted outputs in order, one per Generate call.
type fakeProvider struct {
	name    string
	version string
	outputs []string
	err     error
	calls   int
	prompts []string
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) ModelVersion() string { return f.version }

func (f *fakeProvider) Generate(_ context.Context, prompt string) (string, types.TokenUsage, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", types.TokenUsage{}, f.err
	}
	out := f.outputs[0]
	if len(f.outputs) > 1 {
		f.outputs = f.outputs[1:]
	}
	return out, types.TokenUsage{InputTokens: 100, OutputTokens: 50}, nil
}

const goodSummary = "The central bank held interest rates steady on Tuesday. Markets rallied in response to the decision. Analysts expect rates to remain unchanged through the summer."

const article = "The central bank held interest rates steady on Tuesday, surprising traders. Markets rallied in response. Analysts now expect no changes through summer. Bond yields fell across the curve."

func TestSummarizeAcceptsFirstTier(t *testing.T) {
	p := &fakeProvider{name: "openai", version: "openai:gpt-5-mini@sum_v1", outputs: []string{goodSummary}}
	o := New([]Provider{p}, nil, discardLogger())

	res := o.Summarize(context.Background(), article, "en", "Rate Decision")

	if res.ModelVersion != "openai:gpt-5-mini@sum_v1" {
		t.Fatalf("model version = %q", res.ModelVersion)
	}
	if p.calls != 1 {
		t.Fatalf("calls = %d, want 1", p.calls)
	}
	if res.Usage.Total() != 150 {
		t.Fatalf("usage = %d, want 150", res.Usage.Total())
	}
}

func TestSummarizeRetriesStricterExactlyOnce(t *testing.T) {
	p := &fakeProvider{
		name:    "openai",
		version: "openai:gpt-5-mini@sum_v1",
		outputs: []string{"too short.", goodSummary},
	}
	o := New([]Provider{p}, nil, discardLogger())

	res := o.Summarize(context.Background(), article, "en", "")

	if p.calls != 2 {
		t.Fatalf("calls = %d, want exactly one retry", p.calls)
	}
	if !strings.Contains(p.prompts[1], "exactly 3 sentences") {
		t.Fatal("retry must use the stricter prompt")
	}
	if res.ModelVersion != "openai:gpt-5-mini@sum_v1" {
		t.Fatalf("model version = %q", res.ModelVersion)
	}
	// Usage from both attempts is billed.
	if res.Usage.InputTokens != 200 || res.Usage.OutputTokens != 100 {
		t.Fatalf("usage = %+v, want accumulated attempts", res.Usage)
	}
}

func TestSummarizeFallsThroughTiersToExtractive(t *testing.T) {
	primary := &fakeProvider{name: "openai", version: "openai:x@sum_v1", err: errors.New("rate limited")}
	secondary := &fakeProvider{name: "cohere", version: "cohere:y@sum_fb1", outputs: []string{"nope.", "still nope."}}
	o := New([]Provider{primary, secondary}, nil, discardLogger())

	res := o.Summarize(context.Background(), article, "en", "Rate Decision")

	if primary.calls != 1 {
		t.Fatalf("failed tier retried: %d calls", primary.calls)
	}
	if secondary.calls != 2 {
		t.Fatalf("secondary calls = %d, want 2 (gate retry)", secondary.calls)
	}
	if res.ModelVersion != LeadModelVersion {
		t.Fatalf("model version = %q, want extractive tag", res.ModelVersion)
	}
	if strings.TrimSpace(res.Summary) == "" {
		t.Fatal("extractive tier must produce a summary for non-empty input")
	}
}

type fakeTranslator struct {
	out string
	err error
}

func (f *fakeTranslator) Translate(_ context.Context, _ string) (string, error) {
	return f.out, f.err
}
func (f *fakeTranslator) ModelVersion() string { return "hf:opus-mt-es-en@tr_v1" }

func TestSummarizeTranslatesSpanishInput(t *testing.T) {
	p := &fakeProvider{name: "openai", version: "openai:x@sum_v1", outputs: []string{goodSummary}}
	tr := &fakeTranslator{out: "The bank kept rates steady. Markets went up. Everyone was relieved."}
	o := New([]Provider{p}, tr, discardLogger())

	res := o.Summarize(context.Background(), "El banco mantuvo las tasas.", "es", "")

	if !res.Translated {
		t.Fatal("result must be tagged translated")
	}
	if !strings.Contains(p.prompts[0], "kept rates steady") {
		t.Fatal("provider must see the translated text")
	}
}

func TestSummarizeTranslationFailureIsBestEffort(t *testing.T) {
	p := &fakeProvider{name: "openai", version: "openai:x@sum_v1", outputs: []string{goodSummary}}
	tr := &fakeTranslator{err: errors.New("endpoint down")}
	o := New([]Provider{p}, tr, discardLogger())

	res := o.Summarize(context.Background(), "El banco mantuvo las tasas sin cambios.", "es", "")

	if res.Translated {
		t.Fatal("failed translation must not be tagged translated")
	}
	if !strings.Contains(p.prompts[0], "El banco") {
		t.Fatal("untranslated text must still be summarized")
	}
}

func TestLeadNeverEmptyForNonEmptyInput(t *testing.T) {
	if Lead("", "One sentence only") == "" {
		t.Fatal("lead must cover sentence-less text")
	}
	if Lead("Title Here", "") == "" {
		t.Fatal("lead must cover title-only input")
	}
	if got := Lead("", ""); got != "" {
		t.Fatalf("empty input should yield empty lead, got %q", got)
	}
}

func TestLeadCapsWords(t *testing.T) {
	long := strings.Repeat("word. ", 500)
	words := strings.Fields(Lead("A Title", long))
	if len(words) > 180 {
		t.Fatalf("lead has %d words, want <= 180", len(words))
	}
}

func TestSplitSentencesKeepsPunctuation(t *testing.T) {
	sents := SplitSentences("First one. Second one! Third?")
	if len(sents) != 3 {
		t.Fatalf("got %d sentences: %v", len(sents), sents)
	}
	if sents[0] != "First one." || sents[1] != "Second one!" || sents[2] != "Third?" {
		t.Fatalf("sentences = %v", sents)
	}
}

func TestPostProcessCapitalizesAndGrounds(t *testing.T) {
	got := PostProcess("the vote passed narrowly. opponents promised appeals.", "Senate Approves Budget")
	if !strings.HasPrefix(got, "Senate: The vote passed narrowly.") {
		t.Fatalf("got %q", got)
	}

	// Subject already mentioned: no prefix.
	got = PostProcess("the senate approved the budget.", "Senate Approves Budget")
	if strings.HasPrefix(got, "Senate: ") {
		t.Fatalf("unexpected subject prefix: %q", got)
	}
}

func TestKeySentences(t *testing.T) {
	got := KeySentences("A. B. C. D.", 3)
	if len(got) != 3 {
		t.Fatalf("got %d sentences", len(got))
	}
	if got := KeySentences("", 3); got == nil || len(got) != 0 {
		t.Fatalf("empty summary should yield empty non-nil slice, got %#v", got)
	}
}

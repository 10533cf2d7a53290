package sentiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClassifier struct {
	dist Distribution
	err  error
}

func (f *fakeClassifier) Distribution(context.Context, string) (Distribution, error) {
	return f.dist, f.err
}
func (f *fakeClassifier) ModelVersion() string { return "distilbert-mc@sent_v4" }

func TestClassifyConfidentPrediction(t *testing.T) {
	g := New(&fakeClassifier{dist: Distribution{Negative: 0.05, Neutral: 0.10, Positive: 0.85}}, discardLogger())

	label, conf, mv, err := g.Classify(context.Background(), "great news all around")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != LabelPositive || conf != 0.85 {
		t.Fatalf("got (%s, %v)", label, conf)
	}
	if mv != "distilbert-mc@sent_v4" {
		t.Fatalf("model version = %q", mv)
	}
}

func TestClassifyTiesToNeutral(t *testing.T) {
	// Positive and negative within the polarity delta with neutral not
	// dominated: the gate must call it neutral, not pick the nose-ahead pole.
	g := New(&fakeClassifier{dist: Distribution{Negative: 0.44, Neutral: 0.46, Positive: 0.48}}, discardLogger())

	label, conf, _, err := g.Classify(context.Background(), "mixed developments today")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != LabelNeutral {
		t.Fatalf("label = %s, want neutral on a near-tie", label)
	}
	if conf != 0.46 {
		t.Fatalf("confidence = %v, want the neutral mass", conf)
	}
}

func TestClassifyUncertainUsesLexicon(t *testing.T) {
	uncertain := Distribution{Negative: 0.34, Neutral: 0.33, Positive: 0.33}

	g := New(&fakeClassifier{dist: uncertain}, discardLogger())

	label, conf, _, err := g.Classify(context.Background(),
		"This is a wonderful, fantastic achievement and everyone is delighted.")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != LabelPositive {
		t.Fatalf("label = %s, want lexicon positive", label)
	}
	// Confidence reports the primary's uncertainty, not the lexicon's.
	if conf != 0.34 {
		t.Fatalf("confidence = %v, want 0.34", conf)
	}

	label, _, _, err = g.Classify(context.Background(),
		"This is a horrible, devastating disaster and everyone is furious.")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != LabelNegative {
		t.Fatalf("label = %s, want lexicon negative", label)
	}
}

func TestClassifyLexiconNeverFiresOnConfidentPrimary(t *testing.T) {
	// Clearly positive text, but the primary is confidently negative: the
	// lexicon must not override it.
	g := New(&fakeClassifier{dist: Distribution{Negative: 0.80, Neutral: 0.10, Positive: 0.10}}, discardLogger())

	label, _, _, err := g.Classify(context.Background(),
		"This is a wonderful, fantastic achievement and everyone is delighted.")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != LabelNegative {
		t.Fatalf("label = %s, confident primary must stand", label)
	}
}

func TestClassifyHardErrorPropagates(t *testing.T) {
	g := New(&fakeClassifier{err: errors.New("connection refused")}, discardLogger())

	_, _, _, err := g.Classify(context.Background(), "anything")
	if err == nil {
		t.Fatal("classifier failure must be a hard error")
	}
	if !strings.Contains(err.Error(), "sentiment_error") {
		t.Fatalf("error = %v, want sentiment_error tag", err)
	}
}

func TestLocalClassifierNeverFails(t *testing.T) {
	c := NewLocalClassifier()

	dist, err := c.Distribution(context.Background(), "plain statement of fact")
	if err != nil {
		t.Fatalf("local classifier: %v", err)
	}
	total := dist.Negative + dist.Neutral + dist.Positive
	if total <= 0 {
		t.Fatalf("distribution sums to %v", total)
	}
}

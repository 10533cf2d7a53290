// Package sentiment invokes the trained three-class classifier and guards
// its output: low-confidence or near-tie predictions degrade to neutral,
// and a deterministic lexicon fallback reclassifies only when the primary
// was already uncertain.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonreiter/govader"

	"newssum/config"
)

// Labels in classifier index order.
const (
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
	LabelPositive = "positive"
)

// Distribution is a probability distribution over the three classes.
type Distribution struct {
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Positive float64 `json:"positive"`
}

// Classifier is the trained-model capability. Invocation failure is a hard
// error for the request; sentiment is a required result field and there is
// no safe fallback for total unavailability.
type Classifier interface {
	Distribution(ctx context.Context, text string) (Distribution, error)
	ModelVersion() string
}

// Gate wraps the classifier with the confidence gate and lexicon fallback.
type Gate struct {
	classifier Classifier
	lexicon    *govader.SentimentIntensityAnalyzer
	log        *slog.Logger
}

// New builds a gate. The VADER lexicon is process-local and deterministic.
func New(classifier Classifier, log *slog.Logger) *Gate {
	return &Gate{
		classifier: classifier,
		lexicon:    govader.NewSentimentIntensityAnalyzer(),
		log:        log,
	}
}

// ModelVersion returns the primary classifier tag for cache-key composition.
func (g *Gate) ModelVersion() string { return g.classifier.ModelVersion() }

// Classify returns (label, confidence, modelVersion). The input should be
// the summary when one exists; it is shorter and denser signal than the
// full article.
func (g *Gate) Classify(ctx context.Context, text string) (string, float64, string, error) {
	dist, err := g.classifier.Distribution(ctx, text)
	if err != nil {
		return "", 0, "", fmt.Errorf("sentiment_error: %w", err)
	}

	mv := g.classifier.ModelVersion()
	label, maxp := argmax(dist)

	if maxp < config.UncertainThreshold {
		// Primary is uncertain; let the lexicon reclassify. It never fires
		// on a confident primary.
		fallback := g.lexiconLabel(text)
		g.log.Info("sentiment below confidence gate, using lexicon",
			"primary", label, "confidence", maxp, "fallback", fallback)
		return fallback, maxp, mv, nil
	}

	// Ties-to-neutral: a narrow positive/negative margin with neutral not
	// dominated is an ambiguity call, not a polarity call.
	if abs(dist.Positive-dist.Negative) < config.PolarityDelta &&
		dist.Neutral >= min(dist.Positive, dist.Negative) {
		return LabelNeutral, dist.Neutral, mv, nil
	}

	return label, maxp, mv, nil
}

func (g *Gate) lexiconLabel(text string) string {
	compound := g.lexicon.PolarityScores(text).Compound
	switch {
	case compound >= config.LexiconPositive:
		return LabelPositive
	case compound <= config.LexiconNegative:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func argmax(d Distribution) (string, float64) {
	label, maxp := LabelNegative, d.Negative
	if d.Neutral > maxp {
		label, maxp = LabelNeutral, d.Neutral
	}
	if d.Positive > maxp {
		label, maxp = LabelPositive, d.Positive
	}
	return label, maxp
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

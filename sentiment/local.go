package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// LocalClassifier is the in-process classifier used when no inference
// endpoint is configured. It maps the VADER proportion scores directly
// onto the three-class distribution, so it never fails.
type LocalClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (c *LocalClassifier) ModelVersion() string { return "vader@sent_local1" }

func (c *LocalClassifier) Distribution(_ context.Context, text string) (Distribution, error) {
	scores := c.analyzer.PolarityScores(text)
	return Distribution{
		Negative: scores.Negative,
		Neutral:  scores.Neutral,
		Positive: scores.Positive,
	}, nil
}

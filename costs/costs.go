// Package costs converts token usage into a monetary estimate from a
// static per-model pricing table. Arithmetic is exact decimal: at scale,
// float rounding drift on per-request costs adds up to real money.
package costs

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Price holds cents per 1000 tokens for one model identity.
type Price struct {
	Input       decimal.Decimal
	CachedInput decimal.Decimal
	Output      decimal.Decimal
}

// Table maps model identities (version tag minus the @variant suffix) to
// prices. Unknown models price at zero: a missing table entry must never
// block a response.
type Table struct {
	prices map[string]Price
}

type priceFile struct {
	Models map[string]struct {
		Input       string `yaml:"input"`
		CachedInput string `yaml:"cached_input"`
		Output      string `yaml:"output"`
	} `yaml:"models"`
}

// DefaultTable returns the compiled-in pricing table.
func DefaultTable() *Table {
	return &Table{prices: map[string]Price{
		"openai:gpt-5-mini": {
			Input:       decimal.RequireFromString("0.025"),
			CachedInput: decimal.RequireFromString("0.0025"),
			Output:      decimal.RequireFromString("0.2"),
		},
		"cohere:command-r7b": {
			Input:  decimal.RequireFromString("0.00375"),
			Output: decimal.RequireFromString("0.015"),
		},
	}}
}

// LoadTable reads a YAML pricing file. Prices are decimal strings so no
// value ever round-trips through a float.
func LoadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing %s: %w", path, err)
	}
	var f priceFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse pricing %s: %w", path, err)
	}

	prices := make(map[string]Price, len(f.Models))
	for key, p := range f.Models {
		price := Price{}
		if price.Input, err = parsePrice(p.Input); err != nil {
			return nil, fmt.Errorf("pricing %s input: %w", key, err)
		}
		if price.CachedInput, err = parsePrice(p.CachedInput); err != nil {
			return nil, fmt.Errorf("pricing %s cached_input: %w", key, err)
		}
		if price.Output, err = parsePrice(p.Output); err != nil {
			return nil, fmt.Errorf("pricing %s output: %w", key, err)
		}
		prices[key] = price
	}
	return &Table{prices: prices}, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

var thousand = decimal.NewFromInt(1000)

// EstimateCents prices the given token counts in integer cents, rounded
// half-up, with a floor of one cent for any strictly positive cost. A real
// cost never silently rounds to zero; zero means free or untracked.
func (t *Table) EstimateCents(modelKey string, inputTokens, outputTokens, cachedInputTokens int) int {
	price, ok := t.prices[modelKey]
	if !ok {
		return 0
	}

	cents := decimal.NewFromInt(int64(inputTokens)).Div(thousand).Mul(price.Input).
		Add(decimal.NewFromInt(int64(cachedInputTokens)).Div(thousand).Mul(price.CachedInput)).
		Add(decimal.NewFromInt(int64(outputTokens)).Div(thousand).Mul(price.Output))

	if cents.IsZero() {
		return 0
	}

	rounded := cents.Round(0)
	if rounded.IsZero() && cents.IsPositive() {
		return 1
	}
	return int(rounded.IntPart())
}

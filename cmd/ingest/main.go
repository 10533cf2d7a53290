// Command ingest pulls an RSS feed and pushes every entry through the
// analyze API. Entries whose domains fail the service's guardrails are
// reported and skipped.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"newssum/rssfeeds"
	"newssum/types"
)

func main() {
	_ = godotenv.Load()

	var (
		feedURL  = flag.String("feed", "", "RSS/Atom feed URL to ingest")
		apiURL   = flag.String("api", envOrDefault("API_URL", "http://localhost:8080"), "analyze API base URL")
		maxCount = flag.Int("count", 10, "maximum entries to ingest")
		lang     = flag.String("lang", "en", "language hint passed to the analyzer")
	)
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if *feedURL == "" {
		log.Error("missing -feed argument")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	entries, err := rssfeeds.FetchFeed(ctx, *feedURL, *maxCount)
	cancel()
	if err != nil {
		log.Error("feed fetch failed", "feed", *feedURL, "error", err)
		os.Exit(1)
	}
	log.Info("fetched feed", "feed", *feedURL, "entries", len(entries))

	client := &http.Client{Timeout: 60 * time.Second}
	analyzed, skipped := 0, 0

	for i, entry := range entries {
		result, err := analyze(client, *apiURL, entry.URL, *lang)
		if err != nil {
			log.Warn("entry skipped", "n", i+1, "url", entry.URL, "error", err)
			skipped++
			continue
		}
		log.Info("entry analyzed",
			"n", i+1,
			"url", entry.URL,
			"sentiment", result.Sentiment,
			"cache_hit", result.CacheHit,
			"cost_cents", result.CostCents)
		analyzed++
	}

	log.Info("ingest complete", "analyzed", analyzed, "skipped", skipped)
}

func analyze(client *http.Client, apiURL, articleURL, lang string) (*types.AnalysisResult, error) {
	payload, err := json.Marshal(types.AnalysisRequest{URL: articleURL, Lang: lang})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(apiURL+"/api/analyze", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("analyze returned %s (%s)", resp.Status, apiErr.Code)
	}

	var result types.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

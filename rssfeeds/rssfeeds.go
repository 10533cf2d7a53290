// Package rssfeeds reads RSS/Atom feeds into ingest entries for the
// analysis pipeline.
package rssfeeds

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one feed item worth analyzing.
type Entry struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// FetchFeed retrieves and parses a feed, returning up to maxCount entries
// that carry a link.
func FetchFeed(ctx context.Context, feedURL string, maxCount int) ([]Entry, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	entries := make([]Entry, 0, min(len(feed.Items), maxCount))
	for _, item := range feed.Items {
		if len(entries) >= maxCount {
			break
		}
		if item.Link == "" {
			continue
		}

		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		entries = append(entries, Entry{
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: publishedAt,
		})
	}

	return entries, nil
}

// Package storage persists final analyses and source metadata. The
// pipeline calls it after computing, fire-and-forget: persistence failure
// is logged and never fails the HTTP response.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles(
    id          TEXT PRIMARY KEY,
    url         TEXT NOT NULL,
    domain      TEXT NOT NULL,
    title       TEXT,
    lang        TEXT CHECK (lang IN ('en','es')) NOT NULL,
    pub_time    TEXT,
    snippet     TEXT,
    text_hash   TEXT NOT NULL,
    create_time TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS analyses(
    article_id    TEXT NOT NULL,
    summary       TEXT,
    sentiment     TEXT CHECK (sentiment IN ('positive','neutral','negative')),
    confidence    REAL,
    cost_cents    INTEGER DEFAULT 0,
    model_version TEXT,
    create_time   TEXT NOT NULL,
    PRIMARY KEY(article_id, model_version),
    FOREIGN KEY(article_id) REFERENCES articles(id)
);
CREATE INDEX IF NOT EXISTS idx_articles_text_hash   ON articles(text_hash);
CREATE INDEX IF NOT EXISTS idx_articles_create_time ON articles(create_time);
CREATE INDEX IF NOT EXISTS idx_analyses_article_id  ON analyses(article_id);
`

// StoredAnalysis is one row of the analyze history, as listed by the
// articles API.
type StoredAnalysis struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Domain       string  `json:"domain"`
	Title        string  `json:"title,omitempty"`
	Lang         string  `json:"lang"`
	Snippet      string  `json:"snippet,omitempty"`
	Summary      string  `json:"summary"`
	Sentiment    string  `json:"sentiment"`
	Confidence   float64 `json:"confidence"`
	CostCents    int     `json:"cost_cents"`
	ModelVersion string  `json:"model_version"`
	CreateTime   string  `json:"create_time"`
}

// AnalysisRecord carries everything StoreAnalysis writes.
type AnalysisRecord struct {
	ID           string
	URL          string
	Domain       string
	Title        string
	Lang         string
	PubTime      string
	Snippet      string
	TextHash     string
	Summary      string
	Sentiment    string
	Confidence   float64
	CostCents    int
	ModelVersion string
}

// SQLite is the durable history store.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLite opens (and creates, if needed) the database file and schema.
func NewSQLite(path string, log *slog.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, log: log}, nil
}

// StoreAnalysis upserts the article row and its analysis row. Errors are
// returned so the caller can log them, but by contract the caller never
// fails a response over them.
func (s *SQLite) StoreAnalysis(ctx context.Context, rec AnalysisRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
        INSERT OR REPLACE INTO articles
            (id, url, domain, title, lang, pub_time, snippet, text_hash, create_time)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		rec.ID, rec.URL, rec.Domain, nullable(rec.Title), rec.Lang,
		nullable(rec.PubTime), nullable(rec.Snippet), rec.TextHash,
	)
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT OR REPLACE INTO analyses
            (article_id, summary, sentiment, confidence, cost_cents, model_version, create_time)
        VALUES (?, ?, ?, ?, ?, ?, datetime('now'))`,
		rec.ID, rec.Summary, rec.Sentiment, rec.Confidence, rec.CostCents, rec.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert analysis: %w", err)
	}

	return tx.Commit()
}

// ListRecent returns the newest analyses joined with their source metadata.
func (s *SQLite) ListRecent(ctx context.Context, limit int) ([]StoredAnalysis, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query, args, err := sq.Select(
		"a.id", "a.url", "a.domain", "COALESCE(a.title, '')", "a.lang",
		"COALESCE(a.snippet, '')", "COALESCE(n.summary, '')",
		"COALESCE(n.sentiment, 'neutral')", "COALESCE(n.confidence, 0)",
		"COALESCE(n.cost_cents, 0)", "COALESCE(n.model_version, '')",
		"n.create_time",
	).
		From("analyses n").
		Join("articles a ON a.id = n.article_id").
		OrderBy("n.create_time DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []StoredAnalysis
	for rows.Next() {
		var row StoredAnalysis
		if err := rows.Scan(
			&row.ID, &row.URL, &row.Domain, &row.Title, &row.Lang,
			&row.Snippet, &row.Summary, &row.Sentiment, &row.Confidence,
			&row.CostCents, &row.ModelVersion, &row.CreateTime,
		); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

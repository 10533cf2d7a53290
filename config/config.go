package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is an immutable snapshot of all runtime settings. It is loaded
// once in main and passed down; nothing mutates it afterward. The only
// reloadable piece is the domain allowlist, which is re-read through
// LoadAllowlist into a fresh snapshot.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	AllowlistPath string `env:"ALLOWLIST_PATH" envDefault:"config/allowlist.yaml"`
	PricingPath   string `env:"PRICING_PATH"`

	RedisURL string `env:"REDIS_URL"`
	DBPath   string `env:"DB_PATH" envDefault:"data/app.db"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"SUMMARY_MODEL" envDefault:"gpt-5-mini"`
	CohereAPIKey string `env:"COHERE_API_KEY"`
	CohereModel  string `env:"COHERE_MODEL" envDefault:"command-r7b-12-2024"`

	SentimentURL    string `env:"SENTIMENT_URL"`
	SentimentAPIKey string `env:"SENTIMENT_API_KEY"`
	TranslateURL    string `env:"TRANSLATE_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"newssum.analyses"`

	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3Profile      string `env:"S3_PROFILE"`
	S3Prefix       string `env:"S3_PREFIX"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE"`

	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"20s"`
	SummaryTimeout time.Duration `env:"SUMMARY_TIMEOUT" envDefault:"20s"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"72h"`

	SampleRate float64 `env:"SAMPLE_RATE" envDefault:"1.0"`
	LogLevel   string  `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// Allowlist is an immutable set of trusted domains. A hostname is allowed
// when it equals a listed domain or is a subdomain of one.
type Allowlist struct {
	domains []string
}

type allowlistFile struct {
	Domains []string `yaml:"domains"`
}

// NewAllowlist builds a snapshot from raw domain strings. Entries are
// lowercased and stripped of leading dots; blanks are skipped.
func NewAllowlist(domains []string) *Allowlist {
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d == "" {
			continue
		}
		cleaned = append(cleaned, d)
	}
	return &Allowlist{domains: cleaned}
}

// LoadAllowlist reads the YAML allowlist file into a fresh snapshot.
func LoadAllowlist(path string) (*Allowlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read allowlist %s: %w", path, err)
	}
	var f allowlistFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse allowlist %s: %w", path, err)
	}
	return NewAllowlist(f.Domains), nil
}

// Allows reports whether host is a listed domain or a subdomain of one.
func (a *Allowlist) Allows(host string) bool {
	if a == nil {
		return false
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range a.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Size returns the number of listed domains.
func (a *Allowlist) Size() int {
	if a == nil {
		return 0
	}
	return len(a.domains)
}

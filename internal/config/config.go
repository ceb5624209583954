// Package config loads the digest settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFeeds are used when neither RSS_FEEDS nor a feeds file is given.
var DefaultFeeds = []string{
	"https://openai.com/blog/rss.xml",
	"https://blog.google/rss/",
	"https://www.anthropic.com/news/rss",
	"https://ai.meta.com/blog/rss/",
	"https://blogs.microsoft.com/ai/feed/",
	"https://developer.nvidia.com/blog/feed/",
	"https://venturebeat.com/category/ai/feed/",
	"https://techcrunch.com/category/artificial-intelligence/feed/",
	"https://www.theverge.com/ai-artificial-intelligence/rss/index.xml",
	"https://www.technologyreview.com/topic/artificial-intelligence/feed/",
	"https://huggingface.co/blog/feed.xml",
	"https://export.arxiv.org/rss/cs.AI",
}

type Config struct {
	// Sources
	Feeds           []string
	FeedsConfigPath string

	// Pipeline
	FreshnessHours           int
	SimilarityThreshold      float64 // dedup
	MergeSimilarityThreshold float64
	TopN                     int
	ScoringRulesFile         string
	FetchFullArticles        bool

	// Model
	AIProvider             string // openai | deepseek | gemini
	AIAPIKey               string
	AIBaseURL              string
	AIModel                string
	DigestLanguage         string
	MaxModelRequests       int // per run, 0 = unlimited
	ModelRequestsPerMinute int // 0 = unpaced

	// Delivery
	FeishuWebhook  string
	TelegramToken  string
	TelegramChatID string
	DryRun         bool

	// App settings
	RequestTimeout        time.Duration
	RetryAttempts         int
	RetryDelay            time.Duration
	LogLevel              string
	LogFormat             string
	MetricsPushgatewayURL string

	// Warnings collects settings that were malformed and replaced by defaults.
	// They are logged once a logger exists.
	Warnings []string
}

// FeedsConfig is the YAML feeds file:
//
//	feeds:
//	  - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// Load reads .env files and the environment, then validates the result.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		FeedsConfigPath:       getEnvOrDefault("FEEDS_CONFIG", "configs/feeds.yaml"),
		AIProvider:            strings.ToLower(getEnvOrDefault("AI_PROVIDER", "openai")),
		AIAPIKey:              getEnv("AI_API_KEY"),
		AIBaseURL:             getEnv("AI_BASE_URL"),
		DigestLanguage:        getEnvOrDefault("DIGEST_LANGUAGE", "Chinese"),
		FeishuWebhook:         getEnv("FEISHU_WEBHOOK"),
		TelegramToken:         getEnv("TELEGRAM_TOKEN"),
		TelegramChatID:        getEnv("TELEGRAM_CHAT_ID"),
		ScoringRulesFile:      getEnv("SCORING_RULES_FILE"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
		MetricsPushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL"),
	}

	cfg.FreshnessHours = cfg.intOrDefault("FRESHNESS_HOURS", 48)
	cfg.SimilarityThreshold = cfg.floatOrDefault("SIMILARITY_THRESHOLD", 0.8)
	cfg.MergeSimilarityThreshold = cfg.floatOrDefault("MERGE_SIMILARITY_THRESHOLD", 0.7)
	cfg.TopN = cfg.intOrDefault("TOP_N", 5)
	cfg.MaxModelRequests = cfg.intOrDefault("MAX_MODEL_REQUESTS", 0)
	cfg.ModelRequestsPerMinute = cfg.intOrDefault("MODEL_REQUESTS_PER_MINUTE", 0)
	cfg.RetryAttempts = cfg.intOrDefault("RETRY_ATTEMPTS", 3)
	cfg.RequestTimeout = cfg.durationOrDefault("REQUEST_TIMEOUT", 30*time.Second)
	cfg.RetryDelay = cfg.durationOrDefault("RETRY_DELAY", 2*time.Second)
	cfg.DryRun = cfg.boolOrDefault("DRY_RUN", false)
	cfg.FetchFullArticles = cfg.boolOrDefault("FETCH_FULL_ARTICLES", false)

	defaultModel := "gpt-4o"
	if cfg.AIProvider == "gemini" {
		defaultModel = "gemini-1.5-flash"
	}
	cfg.AIModel = getEnvOrDefault("AI_MODEL", defaultModel)

	feeds, err := cfg.resolveFeeds()
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds

	return cfg, cfg.Validate()
}

// FreshnessWindow is FreshnessHours as a duration.
func (c *Config) FreshnessWindow() time.Duration {
	return time.Duration(c.FreshnessHours) * time.Hour
}

func (c *Config) Validate() error {
	var errs []error
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be in (0,1], got %v", c.SimilarityThreshold))
	}
	if c.MergeSimilarityThreshold <= 0 || c.MergeSimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("MERGE_SIMILARITY_THRESHOLD must be in (0,1], got %v", c.MergeSimilarityThreshold))
	}
	if c.TopN <= 0 {
		errs = append(errs, fmt.Errorf("TOP_N must be positive, got %d", c.TopN))
	}
	if c.FreshnessHours <= 0 {
		errs = append(errs, fmt.Errorf("FRESHNESS_HOURS must be positive, got %d", c.FreshnessHours))
	}
	switch c.AIProvider {
	case "openai", "deepseek", "gemini":
	default:
		errs = append(errs, fmt.Errorf("AI_PROVIDER must be 'openai', 'deepseek' or 'gemini', got %q", c.AIProvider))
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		errs = append(errs, errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	if c.MaxModelRequests < 0 || c.ModelRequestsPerMinute < 0 {
		errs = append(errs, errors.New("model request limits must not be negative"))
	}
	return errors.Join(errs...)
}

// resolveFeeds prefers RSS_FEEDS, then the feeds file when it exists, then
// DefaultFeeds.
func (c *Config) resolveFeeds() ([]string, error) {
	if v := getEnv("RSS_FEEDS"); v != "" {
		return splitList(v), nil
	}

	feeds, err := LoadFeeds(c.FeedsConfigPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return DefaultFeeds, nil
	case err != nil:
		return nil, fmt.Errorf("load feeds from %s: %w", c.FeedsConfigPath, err)
	case len(feeds) == 0:
		return DefaultFeeds, nil
	}
	return feeds, nil
}

// LoadFeeds reads the RSS feeds list from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return cleanList(cfg.Feeds), nil
}

// loadEnvFiles loads ENV_FILE alone when set, otherwise .env.local and .env.
// Missing files are ignored; variables already in the environment win.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// getEnv returns the variable with whitespace and surrounding quotes removed.
func getEnv(key string) string {
	return clean(os.Getenv(key))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := getEnv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) intOrDefault(key string, defaultValue int) int {
	v := getEnv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.warn(key, v, defaultValue)
		return defaultValue
	}
	return n
}

func (c *Config) floatOrDefault(key string, defaultValue float64) float64 {
	v := getEnv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.warn(key, v, defaultValue)
		return defaultValue
	}
	return f
}

func (c *Config) boolOrDefault(key string, defaultValue bool) bool {
	v := getEnv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warn(key, v, defaultValue)
		return defaultValue
	}
	return b
}

// durationOrDefault accepts Go durations ("30s") and bare seconds ("30").
func (c *Config) durationOrDefault(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key)
	if v == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.warn(key, v, defaultValue)
		return defaultValue
	}
	return d
}

func (c *Config) warn(key, value string, used any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is malformed, using %v", key, value, used))
}

func clean(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = clean(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/deusflow/ainews/internal/ai"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/gemini"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/notify"
	"github.com/deusflow/ainews/internal/openai"
	"github.com/deusflow/ainews/internal/ratelimit"
	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/rss"
	"github.com/deusflow/ainews/internal/scraper"
	"github.com/deusflow/ainews/internal/telegram"
)

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	m := metrics.New()

	a := &App{
		cfg:     cfg,
		log:     log.With(logger.Component("app")),
		metrics: m,
		now:     time.Now,
	}

	fetcher := rss.NewFetcher(httpClient, cfg.Feeds, retryCfg, log)
	fetcher.OnFeedError = func(string, error) { m.IncrementFeedErrors() }
	a.fetcher = fetcher

	rules := news.DefaultKeywordRules()
	if cfg.ScoringRulesFile != "" {
		loaded, err := news.LoadKeywordRules(cfg.ScoringRulesFile)
		if err != nil {
			return nil, fmt.Errorf("load scoring rules: %w", err)
		}
		rules = loaded
	}

	var model news.ModelScorer
	a.summarizer = ai.FallbackSummarizer{}

	completer, closer, err := newCompleter(ctx, cfg, httpClient.Timeout)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	if completer != nil {
		budget := ratelimit.NewBudget(log, cfg.MaxModelRequests, cfg.ModelRequestsPerMinute)
		completer = ai.WithBudget(ai.WithRetry(completer, retryCfg, log), budget)
		model = ai.NewScorer(completer, log)
		a.summarizer = ai.NewSummarizer(completer, cfg.DigestLanguage, log)
		log.Info("Model provider ready",
			logger.String("provider", cfg.AIProvider),
			logger.String("model", cfg.AIModel),
		)
	} else {
		log.Warn("AI_API_KEY not set, using default model scores and extractive summaries")
	}

	a.scorer = news.NewScorer(log.With(logger.Component("scorer")), news.NewRuleScorer(rules), model)
	a.scorer.OnModelFallback = func(error) { m.IncrementModelFallbacks() }

	if cfg.FetchFullArticles {
		a.enricher = scraper.NewExtractor(httpClient, log)
	}

	a.notifier = newNotifier(cfg, httpClient, retryCfg, log, m)
	return a, nil
}

// newCompleter returns nil when no API key is configured.
func newCompleter(ctx context.Context, cfg *config.Config, timeout time.Duration) (ai.Completer, func(), error) {
	if cfg.AIAPIKey == "" {
		return nil, nil, nil
	}
	if cfg.AIProvider == "gemini" {
		client, err := gemini.NewClient(ctx, cfg.AIAPIKey, cfg.AIModel)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
	return openai.NewClient(openai.Config{
		APIKey:   cfg.AIAPIKey,
		BaseURL:  cfg.AIBaseURL,
		Model:    cfg.AIModel,
		Provider: cfg.AIProvider,
		Timeout:  timeout,
	}), nil, nil
}

func newNotifier(cfg *config.Config, client *http.Client, retryCfg retry.Config, log logger.Logger, m *metrics.Metrics) *notify.Multi {
	var channels []notify.Notifier
	if cfg.DryRun {
		channels = append(channels, notify.NewConsole(os.Stdout))
	} else {
		if cfg.FeishuWebhook != "" {
			channels = append(channels, notify.NewFeishu(cfg.FeishuWebhook, client, retryCfg, log))
		} else {
			log.Warn("FEISHU_WEBHOOK not set, Feishu notification disabled")
		}
		if cfg.TelegramToken != "" {
			tg := telegram.NewClient(client, cfg.TelegramToken, cfg.TelegramChatID, retryCfg, log)
			channels = append(channels, notify.NewTelegram(tg))
		}
	}

	multi := notify.NewMulti(log, channels...)
	multi.OnSent = m.AddDigestsSent
	return multi
}

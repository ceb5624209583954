// Package app wires the collaborators together and runs one digest pass:
// fetch, filter, deduplicate, merge, score, select, summarize, notify.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/notify"
	"github.com/deusflow/ainews/internal/scraper"
)

const pushTimeout = 10 * time.Second

// Fetcher returns the raw entries of all configured sources. Per-source
// failures are its own business; it never fails as a whole.
type Fetcher interface {
	Fetch(ctx context.Context) []news.RawItem
}

// Summarizer turns a selected cluster into a digest entry.
type Summarizer interface {
	Summarize(ctx context.Context, sc news.ScoredCluster) (news.Digest, error)
}

// Enricher downloads the article behind a link.
type Enricher interface {
	Extract(ctx context.Context, url string) (*scraper.Article, error)
}

type App struct {
	cfg        *config.Config
	log        logger.Logger
	fetcher    Fetcher
	scorer     *news.Scorer
	summarizer Summarizer
	notifier   notify.Notifier
	enricher   Enricher // nil unless full articles are wanted
	metrics    *metrics.Metrics
	closers    []func()
	now        func() time.Time
}

// Close releases provider clients.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}

// Metrics returns the run metrics.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Run performs one digest pass. Every empty stage ends the run early and
// successfully; the only error is ctx being cancelled.
func (a *App) Run(ctx context.Context) error {
	start := a.now()
	runID := uuid.NewString()
	log := a.log.With(logger.String("run_id", runID))
	log.Info("Digest run started", logger.Int("feeds", len(a.cfg.Feeds)), logger.Int("top_n", a.cfg.TopN))
	defer a.finish(log, runID, start)

	digests := a.digest(ctx, log)
	if err := ctx.Err(); err != nil {
		log.Warn("Digest run interrupted", logger.Error(err))
		return err
	}
	if len(digests) == 0 {
		return nil
	}

	a.notify(ctx, log, digests)
	return ctx.Err()
}

func (a *App) digest(ctx context.Context, log logger.Logger) []news.Digest {
	items := a.fetcher.Fetch(ctx)
	a.metrics.SetStage(metrics.StageFetched, len(items))
	if len(items) == 0 {
		log.Warn("No news fetched")
		return nil
	}

	fresh := news.FilterFresh(log, items, a.cfg.FreshnessWindow(), a.now())
	a.metrics.SetStage(metrics.StageFresh, len(fresh))
	if len(fresh) == 0 {
		log.Warn("No fresh news found")
		return nil
	}

	unique := news.Deduplicate(log, fresh, a.cfg.SimilarityThreshold)
	a.metrics.SetStage(metrics.StageUnique, len(unique))

	clusters := news.Merge(log, unique, a.cfg.MergeSimilarityThreshold)
	a.metrics.SetStage(metrics.StageClusters, len(clusters))

	scored := a.scorer.Score(ctx, clusters)
	top := news.Select(log, scored, a.cfg.TopN)
	a.metrics.SetStage(metrics.StageSelected, len(top))
	if len(top) == 0 {
		log.Warn("No news selected")
		return nil
	}

	a.enrich(ctx, log, top)

	digests := a.summarize(ctx, log, top)
	a.metrics.SetStage(metrics.StageDigests, len(digests))
	if len(digests) == 0 {
		log.Warn("No summaries generated")
	}
	return digests
}

// enrich sets Article on selected clusters whose constituents carried no content.
func (a *App) enrich(ctx context.Context, log logger.Logger, top []news.ScoredCluster) {
	if a.enricher == nil {
		return
	}
	for i := range top {
		sc := &top[i]
		if sc.HasContent() || len(sc.Links) == 0 || ctx.Err() != nil {
			continue
		}
		article, err := a.enricher.Extract(ctx, sc.Links[0])
		if err != nil {
			log.Warn("Full article unavailable", logger.String("url", sc.Links[0]), logger.Error(err))
			continue
		}
		sc.Article = article.Content
	}
}

// summarize keeps rank order and drops items whose summary failed.
func (a *App) summarize(ctx context.Context, log logger.Logger, top []news.ScoredCluster) []news.Digest {
	digests := make([]news.Digest, 0, len(top))
	for i, sc := range top {
		if ctx.Err() != nil {
			break
		}
		log.Info("Summarizing",
			logger.Int("rank", i+1),
			logger.String("title", sc.Title),
			logger.Float64("score", sc.Score.Final),
		)
		d, err := a.summarizer.Summarize(ctx, sc)
		if err != nil {
			log.Error("Summary failed, dropping item", logger.String("title", sc.Title), logger.Error(err))
			a.metrics.IncrementSummariesFailed()
			continue
		}
		digests = append(digests, d)
	}
	return digests
}

func (a *App) notify(ctx context.Context, log logger.Logger, digests []news.Digest) {
	if m, ok := a.notifier.(*notify.Multi); ok && m.Len() == 0 {
		log.Warn("No notification channel configured, skipping notification", logger.Int("items", len(digests)))
		return
	}
	if err := a.notifier.Notify(ctx, digests); err != nil {
		a.metrics.IncrementNotifyErrors()
		log.Error("Digest delivery incomplete", logger.Error(err))
	}
}

func (a *App) finish(log logger.Logger, runID string, start time.Time) {
	end := a.now()
	a.metrics.RecordRun(end.Sub(start), end)

	s := a.metrics.Snapshot()
	duplicates := 0
	if unique, ok := s.Stages[metrics.StageUnique]; ok {
		duplicates = s.Stages[metrics.StageFresh] - unique
	}
	log.Info("Digest run finished",
		logger.Duration("duration", s.RunDuration),
		logger.Int("fetched", s.Stages[metrics.StageFetched]),
		logger.Int("fresh", s.Stages[metrics.StageFresh]),
		logger.Int("duplicates", duplicates),
		logger.Int("clusters", s.Stages[metrics.StageClusters]),
		logger.Int("digests", s.Stages[metrics.StageDigests]),
		logger.Int("feed_errors", s.FeedErrors),
		logger.Int("model_fallbacks", s.ModelFallbacks),
		logger.Int("summaries_failed", s.SummariesFailed),
		logger.Int("sent", s.DigestsSent),
	)

	if a.cfg.MetricsPushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if err := a.metrics.Push(ctx, a.cfg.MetricsPushgatewayURL, runID); err != nil {
		log.Warn("Metrics push failed", logger.Error(err))
	}
}

// Package rss downloads the configured feeds and turns their entries into raw
// news items.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/scraper"
)

const acceptFeeds = "application/rss+xml, application/xml, application/atom+xml, text/xml, */*"

// Fetcher reads every feed in turn. A feed that fails is logged and skipped.
type Fetcher struct {
	client *http.Client
	feeds  []string
	retry  retry.Config
	log    logger.Logger
	now    func() time.Time

	// OnFeedError, if set, is told about every feed that could not be read.
	OnFeedError func(url string, err error)
}

func NewFetcher(client *http.Client, feeds []string, retryCfg retry.Config, log logger.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		feeds:  feeds,
		retry:  retryCfg,
		log:    log.With(logger.Component("rss")),
		now:    time.Now,
	}
}

// Fetch returns the entries of all feeds that could be read, in feed order.
func (f *Fetcher) Fetch(ctx context.Context) []news.RawItem {
	var all []news.RawItem
	ok := 0

	for _, url := range f.feeds {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if ctx.Err() != nil {
			f.log.Warn("Fetch cancelled", logger.Error(ctx.Err()))
			break
		}

		feed, err := f.fetchFeed(ctx, url)
		if err != nil {
			f.log.Error("Failed to fetch feed", logger.String("url", url), logger.Error(err))
			if f.OnFeedError != nil {
				f.OnFeedError(url, err)
			}
			continue
		}

		items := f.toItems(url, feed)
		all = append(all, items...)
		ok++
		f.log.Info("Fetched feed", logger.String("url", url), logger.Int("items", len(items)))
	}

	f.log.Info("Processed RSS feeds",
		logger.Int("ok", ok),
		logger.Int("feeds", len(f.feeds)),
		logger.Int("items", len(all)),
	)
	return all
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	var feed *gofeed.Feed
	err := retry.Do(ctx, f.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", scraper.UserAgent)
		req.Header.Set("Accept", acceptFeeds)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("HTTP error: %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		feed, err = gofeed.NewParser().Parse(resp.Body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("parse feed: %w", err))
		}
		return nil
	}, func(attempt int, err error) {
		f.log.Warn("Feed request failed, retrying",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
	})
	return feed, err
}

func (f *Fetcher) toItems(url string, feed *gofeed.Feed) []news.RawItem {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = url
	}

	items := make([]news.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		items = append(items, news.RawItem{
			Title:       strings.TrimSpace(entry.Title),
			Link:        strings.TrimSpace(entry.Link),
			Source:      source,
			PublishTime: f.publishTime(entry),
			Summary:     scraper.HTMLToText(entry.Description),
			Content:     scraper.HTMLToText(entry.Content),
		})
	}
	return items
}

// publishTime prefers the published date, then the updated date. Entries with
// neither count as published now. Times are shown in the local zone.
func (f *Fetcher) publishTime(entry *gofeed.Item) time.Time {
	switch {
	case entry.PublishedParsed != nil:
		return entry.PublishedParsed.In(time.Local)
	case entry.UpdatedParsed != nil:
		return entry.UpdatedParsed.In(time.Local)
	default:
		return f.now()
	}
}

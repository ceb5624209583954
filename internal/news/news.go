// Package news holds the digest core: freshness filtering, duplicate elimination,
// cross-source merging, importance scoring and top-N selection.
//
// Every stage has its own record type so the fields available at each step are
// checked by the compiler: RawItem comes out of the fetcher, Cluster out of the
// merger, ScoredCluster out of the scorer and Digest out of the summarizer.
package news

import (
	"strings"
	"time"
)

// RawItem is a single feed entry. The fetcher produces it and nothing mutates it afterwards.
type RawItem struct {
	Title       string
	Link        string // canonical URL, used as the identity key
	Source      string // publisher name
	PublishTime time.Time
	Summary     string
	Content     string
}

// Cluster is one real-world story assembled from one or more RawItems.
//
// Sources and Links are deduplicated ordered sets. Summaries, Contents and
// Constituents are append-only and hold one entry per merged item, so the two
// families have independent lengths.
type Cluster struct {
	Title        string
	Sources      []string
	Links        []string
	PublishTime  time.Time
	Summaries    []string
	Contents     []string
	Constituents []RawItem
}

func newCluster(seed RawItem) *Cluster {
	c := &Cluster{
		Title:       seed.Title,
		PublishTime: seed.PublishTime,
	}
	c.add(seed)
	return c
}

// add folds an item into the cluster. Title and publish time follow the newest
// constituent; an equal timestamp keeps the current title.
func (c *Cluster) add(item RawItem) {
	if !containsString(c.Sources, item.Source) {
		c.Sources = append(c.Sources, item.Source)
	}
	if !containsString(c.Links, item.Link) {
		c.Links = append(c.Links, item.Link)
	}
	c.Summaries = append(c.Summaries, item.Summary)
	c.Contents = append(c.Contents, item.Content)
	c.Constituents = append(c.Constituents, item)

	if item.PublishTime.After(c.PublishTime) {
		c.PublishTime = item.PublishTime
		c.Title = item.Title
	}
}

// Representative returns the cluster as a single RawItem: its title, first source,
// first link, publish time, first summary and first content.
func (c *Cluster) Representative() RawItem {
	item := RawItem{Title: c.Title, PublishTime: c.PublishTime}
	if len(c.Sources) > 0 {
		item.Source = c.Sources[0]
	}
	if len(c.Links) > 0 {
		item.Link = c.Links[0]
	}
	if len(c.Summaries) > 0 {
		item.Summary = c.Summaries[0]
	}
	if len(c.Contents) > 0 {
		item.Content = c.Contents[0]
	}
	return item
}

// HasContent reports whether any constituent carried full content.
func (c *Cluster) HasContent() bool {
	for _, s := range c.Contents {
		if s != "" {
			return true
		}
	}
	return false
}

// Score is attached to a cluster once, after merging.
type Score struct {
	Rule  int     // 0..100, keyword and source heuristics
	Model int     // 0..100, external judgment
	Final float64 // Rule*0.4 + Model*0.6, not clamped
}

// Weights of the final score.
const (
	RuleWeight  = 0.4
	ModelWeight = 0.6
)

// NewScore combines rule and model scores into the ranking value.
func NewScore(rule, model int) Score {
	return Score{
		Rule:  rule,
		Model: model,
		Final: float64(rule)*RuleWeight + float64(model)*ModelWeight,
	}
}

// ScoredCluster is a cluster with its score. A zero Score ranks as 0.
type ScoredCluster struct {
	*Cluster
	Score Score

	// Article is the full page text fetched for the first link after
	// selection. The cluster itself is never changed once merged.
	Article string
}

// ArticleText returns the non-empty constituent contents followed by the
// fetched article, joined by newlines.
func (sc ScoredCluster) ArticleText() string {
	var parts []string
	if sc.Cluster != nil {
		for _, s := range sc.Contents {
			if s != "" {
				parts = append(parts, s)
			}
		}
	}
	if sc.Article != "" {
		parts = append(parts, sc.Article)
	}
	return strings.Join(parts, "\n")
}

// Digest is one summarized entry ready for delivery.
type Digest struct {
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	KeyPoints     []string `json:"key_points"`
	Impact        string   `json:"impact"`
	PublishDate   string   `json:"publish_date"`
	SourceName    string   `json:"source_name"`
	URL           string   `json:"url"`
	Links         []string `json:"-"`
	Sources       []string `json:"-"`
	OriginalTitle string   `json:"-"`
}

// PrimaryURL picks the digest URL, falling back to the first original link.
func (d Digest) PrimaryURL() string {
	if d.URL != "" {
		return d.URL
	}
	if len(d.Links) > 0 {
		return d.Links[0]
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

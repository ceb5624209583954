package news

import (
	"sort"

	"github.com/deusflow/ainews/internal/logger"
)

// Merge groups items that report the same event into clusters.
//
// Items are ordered newest first. The newest remaining item seeds a cluster and
// every remaining item whose title is similar to the seed's title joins it. The
// seed's title stays the comparison baseline while the cluster grows, so an item
// that only resembles another member (a paraphrase of a paraphrase) is not pulled
// in and seeds its own cluster later. This keeps the pass deterministic and
// O(n²) at worst.
func Merge(log logger.Logger, items []RawItem, threshold float64) []*Cluster {
	log.Info("Starting merge", logger.Int("items", len(items)))

	pending := make([]RawItem, len(items))
	copy(pending, items)
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PublishTime.After(pending[j].PublishTime)
	})

	var clusters []*Cluster
	for len(pending) > 0 {
		seed := pending[0]
		cluster := newCluster(seed)

		rest := make([]RawItem, 0, len(pending)-1)
		for _, item := range pending[1:] {
			if Similar(seed.Title, item.Title, threshold) {
				cluster.add(item)
				continue
			}
			rest = append(rest, item)
		}

		if len(cluster.Constituents) > 1 {
			log.Debug("Merged story",
				logger.String("title", cluster.Title),
				logger.Int("items", len(cluster.Constituents)),
				logger.Strings("sources", cluster.Sources))
		}
		clusters = append(clusters, cluster)
		pending = rest
	}

	log.Info("Merge done",
		logger.Int("clusters", len(clusters)),
		logger.Int("items", len(items)))
	return clusters
}

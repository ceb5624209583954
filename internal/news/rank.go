package news

import (
	"sort"
	"time"

	"github.com/deusflow/ainews/internal/logger"
)

// Select orders clusters by final score, then publish time, both descending, and
// returns the first n. Equal keys keep their input order.
func Select(log logger.Logger, scored []ScoredCluster, n int) []ScoredCluster {
	log.Info("Ranking clusters", logger.Int("clusters", len(scored)), logger.Int("top_n", n))
	if n <= 0 {
		return nil
	}

	ranked := make([]ScoredCluster, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.Final != ranked[j].Score.Final {
			return ranked[i].Score.Final > ranked[j].Score.Final
		}
		return publishTime(ranked[i]).After(publishTime(ranked[j]))
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	log.Info("Selected top news", logger.Int("selected", len(ranked)))
	return ranked
}

func publishTime(sc ScoredCluster) (t time.Time) {
	if sc.Cluster == nil {
		return t
	}
	return sc.PublishTime
}

package news

import (
	"strings"

	"github.com/deusflow/ainews/internal/logger"
)

// Deduplicate drops items whose link was already accepted or whose title is
// similar (ratio > threshold) to an accepted title. It is one forward pass over
// the input: a candidate is only compared with items accepted before it, so the
// result depends on input order. The first occurrence always wins. Two blank
// titles count as the same title here, although Similarity scores them 0.
func Deduplicate(log logger.Logger, items []RawItem, threshold float64) []RawItem {
	log.Info("Starting deduplication", logger.Int("items", len(items)))

	unique := make([]RawItem, 0, len(items))
	seenLinks := make(map[string]struct{}, len(items))
	byLink, byTitle := 0, 0

	for _, item := range items {
		if _, dup := seenLinks[item.Link]; dup {
			log.Debug("Duplicate by link", logger.String("title", item.Title), logger.String("link", item.Link))
			byLink++
			continue
		}

		dup := false
		for _, accepted := range unique {
			if sameTitle(item.Title, accepted.Title, threshold) {
				log.Debug("Duplicate by title",
					logger.String("title", item.Title),
					logger.String("similar_to", accepted.Title))
				dup = true
				break
			}
		}
		if dup {
			byTitle++
			continue
		}

		seenLinks[item.Link] = struct{}{}
		unique = append(unique, item)
	}

	log.Info("Deduplication done",
		logger.Int("removed_by_link", byLink),
		logger.Int("removed_by_title", byTitle),
		logger.Int("remaining", len(unique)))
	return unique
}

func sameTitle(a, b string, threshold float64) bool {
	if strings.TrimSpace(a) == "" && strings.TrimSpace(b) == "" {
		return true
	}
	return Similar(a, b, threshold)
}

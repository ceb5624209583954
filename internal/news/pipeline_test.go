package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
)

func reduce(items []RawItem) []*Cluster {
	log := logger.NewNop()
	fresh := FilterFresh(log, items, 48*time.Hour, base)
	unique := Deduplicate(log, fresh, DefaultDedupThreshold)
	return Merge(log, unique, DefaultMergeThreshold)
}

func TestFreshDedupMergeReachesFixedPoint(t *testing.T) {
	items := []RawItem{
		item("OpenAI releases GPT-5", "http://openai/1", "OpenAI Blog", 2*time.Hour),
		item("OpenAI launches GPT-5 today", "http://verge/1", "The Verge", time.Hour),
		item("OpenAI launches GPT-5 today", "http://verge/1", "The Verge", time.Hour),
		item("Stock market falls", "http://wsj/1", "WSJ", 30*time.Minute),
		item("Ancient news", "http://old/1", "Old", 100*time.Hour),
		item("Meta open-sources Llama 4", "http://meta/1", "Meta", 5*time.Hour),
	}

	first := reduce(items)
	require.Len(t, first, 3)

	again := make([]RawItem, 0, len(first))
	for _, c := range first {
		again = append(again, c.Representative())
	}
	second := reduce(again)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].PublishTime, second[i].PublishTime)
		assert.Len(t, second[i].Constituents, 1)
	}
}

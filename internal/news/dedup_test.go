package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
)

func TestDeduplicateSameLinkDropsSecondRegardlessOfTitle(t *testing.T) {
	items := []RawItem{
		item("GPT-5 launched", "http://x/1", "A", time.Hour),
		item("Completely different", "http://x/1", "B", time.Hour),
	}
	got := Deduplicate(logger.NewNop(), items, DefaultDedupThreshold)
	assert.Equal(t, []string{"GPT-5 launched"}, titles(got))
}

func TestDeduplicateThresholdIsStrict(t *testing.T) {
	items := []RawItem{
		item("abcde", "http://x/1", "A", time.Hour),
		item("abcdf", "http://x/2", "B", time.Hour),
	}

	// ratio exactly 0.8 is not a duplicate
	got := Deduplicate(logger.NewNop(), items, 0.8)
	assert.Len(t, got, 2)

	got = Deduplicate(logger.NewNop(), items, 0.79)
	assert.Equal(t, []string{"abcde"}, titles(got))
}

func TestDeduplicateNearIdenticalTitle(t *testing.T) {
	items := []RawItem{
		item("Google unveils Gemini 2.0 model", "http://g/1", "Google", time.Hour),
		item("Google unveils Gemini 2.0 models", "http://v/1", "Verge", time.Hour),
		item("NVIDIA posts record quarter", "http://n/1", "NVIDIA", time.Hour),
	}
	got := Deduplicate(logger.NewNop(), items, DefaultDedupThreshold)
	assert.Equal(t, []string{"Google unveils Gemini 2.0 model", "NVIDIA posts record quarter"}, titles(got))
}

func TestDeduplicateKeepsRewordedCoverage(t *testing.T) {
	// 0.708 is below the dedup threshold; these are left for the merger
	items := []RawItem{
		item("OpenAI releases GPT-5", "http://a/1", "A", time.Hour),
		item("OpenAI launches GPT-5 today", "http://b/1", "B", time.Hour),
	}
	assert.Len(t, Deduplicate(logger.NewNop(), items, DefaultDedupThreshold), 2)
}

func TestDeduplicateComparesOnlyWithAccepted(t *testing.T) {
	// B duplicates A by link and is dropped; C resembles only B, so it survives
	items := []RawItem{
		item("alpha story", "http://x/1", "A", time.Hour),
		item("zzzz yyyy", "http://x/1", "B", time.Hour),
		item("zzzz yyyz", "http://x/3", "C", time.Hour),
	}
	got := Deduplicate(logger.NewNop(), items, DefaultDedupThreshold)
	assert.Equal(t, []string{"alpha story", "zzzz yyyz"}, titles(got))
}

func TestDeduplicateBlankTitlesCollapse(t *testing.T) {
	items := []RawItem{
		item("", "http://x/1", "A", time.Hour),
		item("  ", "http://x/2", "B", time.Hour),
		item("Real title", "http://x/3", "C", time.Hour),
	}
	got := Deduplicate(logger.NewNop(), items, DefaultDedupThreshold)
	require.Len(t, got, 2)
	assert.Equal(t, "http://x/1", got[0].Link)
	assert.Equal(t, "http://x/3", got[1].Link)
}

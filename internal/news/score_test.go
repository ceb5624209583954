package news

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
)

func cluster(title string, summaries []string, sources ...string) *Cluster {
	return &Cluster{Title: title, Summaries: summaries, Sources: sources}
}

func TestRuleScore(t *testing.T) {
	rs := NewRuleScorer(DefaultKeywordRules())

	tests := []struct {
		name string
		c    *Cluster
		want int
	}{
		{
			name: "model update, product, official, one source",
			c:    cluster("OpenAI releases GPT-5", nil, "OpenAI Blog"),
			want: 40 + 25 + 15,
		},
		{
			name: "keyword groups apply once each",
			c:    cluster("GPT and Claude and Gemini", []string{"new model from Llama"}, "Some Blog"),
			want: 40 + 5,
		},
		{
			name: "summaries are searched case-insensitively",
			c:    cluster("Weekly roundup", []string{"A MULTIMODAL agent"}, "Newsletter"),
			want: 20 + 5,
		},
		{
			name: "two sources",
			c:    cluster("Quiet news", nil, "A", "B"),
			want: 5 + 10,
		},
		{
			name: "three sources, clamped at 100",
			c:    cluster("DeepSeek launch of a reasoning model", nil, "Google News", "B", "C"),
			want: 100,
		},
		{
			name: "official source matched by containment",
			c:    cluster("Quiet news", nil, "The NVIDIA Developer Blog"),
			want: 15,
		},
		{
			name: "empty cluster",
			c:    &Cluster{},
			want: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.RuleScore(tt.c))
		})
	}
}

func TestRuleScoreIsDeterministicAndBounded(t *testing.T) {
	rs := NewRuleScorer(DefaultKeywordRules())
	c := cluster("Claude launch with multimodal reasoning agent", []string{"GPT release"}, "Anthropic", "OpenAI", "Google", "Meta")

	first := rs.RuleScore(c)
	assert.Equal(t, first, rs.RuleScore(c))
	assert.GreaterOrEqual(t, first, 0)
	assert.LessOrEqual(t, first, 100)
}

func TestRuleScoreWithEmptyKeywordLists(t *testing.T) {
	rs := NewRuleScorer(KeywordRules{})
	assert.Equal(t, 5, rs.RuleScore(cluster("GPT launch", nil, "OpenAI")))
}

func TestLoadKeywordRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("official_sources:\n  - Mistral\nbreakthrough:\n  - robotics\n"), 0o600))

	rules, err := LoadKeywordRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mistral"}, rules.OfficialSources)
	assert.Equal(t, []string{"robotics"}, rules.Breakthrough)
	assert.Equal(t, DefaultKeywordRules().ModelUpdate, rules.ModelUpdate)

	_, err = LoadKeywordRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

type fakeModel struct {
	score int
	err   error
	calls int
}

func (f *fakeModel) ModelScore(context.Context, *Cluster) (int, error) {
	f.calls++
	return f.score, f.err
}

func TestScorerCombinesScores(t *testing.T) {
	model := &fakeModel{score: 90}
	s := NewScorer(logger.NewNop(), NewRuleScorer(DefaultKeywordRules()), model)

	scored := s.Score(context.Background(), []*Cluster{cluster("OpenAI releases GPT-5", nil, "OpenAI")})
	require.Len(t, scored, 1)
	assert.Equal(t, 80, scored[0].Score.Rule)
	assert.Equal(t, 90, scored[0].Score.Model)
	assert.InDelta(t, 80*0.4+90*0.6, scored[0].Score.Final, 1e-9)
	assert.Equal(t, 1, model.calls)
}

func TestScorerFallsBackToDefaultModelScore(t *testing.T) {
	var fallbacks int
	s := NewScorer(logger.NewNop(), NewRuleScorer(DefaultKeywordRules()), &fakeModel{err: errors.New("boom")})
	s.OnModelFallback = func(error) { fallbacks++ }

	scored := s.Score(context.Background(), []*Cluster{cluster("x", nil, "y"), cluster("z", nil, "w")})
	for _, sc := range scored {
		assert.Equal(t, DefaultModelScore, sc.Score.Model)
	}
	assert.Equal(t, 2, fallbacks)

	noModel := NewScorer(logger.NewNop(), NewRuleScorer(DefaultKeywordRules()), nil)
	scored = noModel.Score(context.Background(), []*Cluster{cluster("x", nil, "y")})
	assert.Equal(t, DefaultModelScore, scored[0].Score.Model)
}

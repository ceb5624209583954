package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/retry"
)

type fakeCompleter struct {
	replies []string
	errs    []error
	prompts []Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, p)
	var reply string
	var err error
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return reply, err
}

var published = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func sampleCluster() *news.Cluster {
	return &news.Cluster{
		Title:       "OpenAI releases GPT-5",
		Sources:     []string{"OpenAI Blog", "The Verge"},
		Links:       []string{"https://openai.com/gpt5", "https://verge.com/gpt5"},
		PublishTime: published,
		Summaries:   []string{"OpenAI has released GPT-5.", "The new model is here."},
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		reply string
		want  int
		err   error
	}{
		{"87", 87, nil},
		{" Score: 42/100", 42, nil},
		{"150", 100, nil},
		{"99999999999999999999999", 100, nil},
		{"0", 0, nil},
		{"high", 0, ErrNoScore},
		{"", 0, ErrNoScore},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			got, err := parseScore(tt.reply)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScorerModelScore(t *testing.T) {
	model := &fakeCompleter{replies: []string{"77"}}
	s := NewScorer(model, logger.NewNop())

	got, err := s.ModelScore(context.Background(), sampleCluster())
	require.NoError(t, err)
	assert.Equal(t, 77, got)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0].User, "Title: OpenAI releases GPT-5")
	assert.Contains(t, model.prompts[0].User, "OpenAI has released GPT-5. The new model is here.")
	assert.Equal(t, 10, model.prompts[0].MaxTokens)
}

func TestScorerDefaultsOnFailure(t *testing.T) {
	s := NewScorer(&fakeCompleter{errs: []error{errors.New("timeout")}}, logger.NewNop())
	got, err := s.ModelScore(context.Background(), sampleCluster())
	assert.Error(t, err)
	assert.Equal(t, news.DefaultModelScore, got)

	s = NewScorer(&fakeCompleter{replies: []string{"very important"}}, logger.NewNop())
	got, err = s.ModelScore(context.Background(), sampleCluster())
	assert.ErrorIs(t, err, ErrNoScore)
	assert.Equal(t, news.DefaultModelScore, got)
}

func TestSummarizerParsesFencedJSON(t *testing.T) {
	reply := "```json\n{\"title\": \"OpenAI 发布 GPT-5\", \"summary\": \"摘要\", \"key_points\": [\"a\", \"b\"], \"impact\": \"重大\", \"publish_date\": \"2025-03-14\"}\n```"
	model := &fakeCompleter{replies: []string{reply}}
	s := NewSummarizer(model, "", logger.NewNop())

	d, err := s.Summarize(context.Background(), news.ScoredCluster{Cluster: sampleCluster()})
	require.NoError(t, err)

	assert.Equal(t, "OpenAI 发布 GPT-5", d.Title)
	assert.Equal(t, []string{"a", "b"}, d.KeyPoints)
	assert.Equal(t, "OpenAI Blog", d.SourceName)
	assert.Equal(t, "https://openai.com/gpt5", d.URL)
	assert.Equal(t, "OpenAI releases GPT-5", d.OriginalTitle)
	assert.Len(t, d.Links, 2)

	require.Len(t, model.prompts, 1)
	assert.True(t, model.prompts[0].JSON)
	assert.Contains(t, model.prompts[0].User, "Sources: OpenAI Blog, The Verge")
	assert.Contains(t, model.prompts[0].User, "translated to Chinese")
	assert.NotContains(t, model.prompts[0].User, "Article Text")
}

func TestSummarizerIncludesArticleText(t *testing.T) {
	c := sampleCluster()
	c.Contents = []string{"Full body of the article."}
	model := &fakeCompleter{replies: []string{`{"title":"t","summary":"s"}`}}
	s := NewSummarizer(model, "English", logger.NewNop())

	d, err := s.Summarize(context.Background(), news.ScoredCluster{Cluster: c})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", d.PublishDate)
	assert.Contains(t, model.prompts[0].User, "Article Text: Full body of the article.")
	assert.Contains(t, model.prompts[0].User, "In English")
}

func TestSummarizerUsesFetchedArticle(t *testing.T) {
	c := sampleCluster()
	model := &fakeCompleter{replies: []string{`{"title":"t","summary":"s"}`}}
	s := NewSummarizer(model, "", logger.NewNop())

	_, err := s.Summarize(context.Background(), news.ScoredCluster{Cluster: c, Article: "Fetched page body."})
	require.NoError(t, err)
	assert.Contains(t, model.prompts[0].User, "Article Text: Fetched page body.")
	assert.Len(t, c.Contents, len(c.Constituents))
}

func TestSummarizerRejectsBadReplies(t *testing.T) {
	for _, reply := range []string{"not json", `{"title":"only title"}`, ""} {
		s := NewSummarizer(&fakeCompleter{replies: []string{reply}}, "", logger.NewNop())
		_, err := s.Summarize(context.Background(), news.ScoredCluster{Cluster: sampleCluster()})
		assert.Error(t, err, reply)
	}

	s := NewSummarizer(&fakeCompleter{errs: []error{errors.New("down")}}, "", logger.NewNop())
	_, err := s.Summarize(context.Background(), news.ScoredCluster{Cluster: sampleCluster()})
	assert.Error(t, err)
}

func TestFallbackSummarizer(t *testing.T) {
	c := sampleCluster()
	c.Summaries = []string{"", "OpenAI has released GPT-5 to all paying users. It is faster than before and cheaper too. Short."}

	d, err := FallbackSummarizer{}.Summarize(context.Background(), news.ScoredCluster{Cluster: c})
	require.NoError(t, err)
	assert.Equal(t, "OpenAI releases GPT-5", d.Title)
	assert.Equal(t, "OpenAI has released GPT-5 to all paying users. It is faster than before and cheaper too.", d.Summary)
	assert.Equal(t, "https://openai.com/gpt5", d.URL)

	d, _ = FallbackSummarizer{}.Summarize(context.Background(), news.ScoredCluster{Cluster: &news.Cluster{Title: "x"}})
	assert.Equal(t, "(no content)", d.Summary)
}

func TestFallbackSummarizerReadsArticle(t *testing.T) {
	sc := news.ScoredCluster{
		Cluster: &news.Cluster{Title: "x", Summaries: []string{""}, Contents: []string{""}},
		Article: "The fetched article explains the whole launch in detail. It then covers pricing and availability for every region.",
	}
	d, err := FallbackSummarizer{}.Summarize(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, "The fetched article explains the whole launch in detail. It then covers pricing and availability for every region.", d.Summary)
}

func TestExtractSummaryShortText(t *testing.T) {
	assert.Equal(t, "tiny", extractSummary("  tiny "))
	choppy := strings.TrimSpace(strings.Repeat("ab. ", 60))
	assert.Equal(t, choppy[:160]+"...", extractSummary(choppy))
}

type countingBudget struct {
	left int
}

func (b *countingBudget) Acquire(context.Context) error {
	if b.left == 0 {
		return errors.New("exhausted")
	}
	b.left--
	return nil
}

func TestWithBudgetAndRetry(t *testing.T) {
	inner := &fakeCompleter{
		replies: []string{"", "42", "7"},
		errs:    []error{errors.New("503"), nil, nil},
	}
	c := WithBudget(WithRetry(inner, retry.Config{MaxAttempts: 2, Delay: time.Millisecond}, logger.NewNop()), &countingBudget{left: 2})

	out, err := c.Complete(context.Background(), Prompt{User: "a"})
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	out, err = c.Complete(context.Background(), Prompt{User: "b"})
	require.NoError(t, err)
	assert.Equal(t, "7", out)

	_, err = c.Complete(context.Background(), Prompt{User: "c"})
	assert.Error(t, err)
	assert.Len(t, inner.prompts, 3)
}

func TestLimitText(t *testing.T) {
	assert.Equal(t, "a b c", limitText(" a\r\n b\t c ", 100))

	s := strings.Repeat("word ", 10) + ". " + strings.Repeat("x", 100)
	got := limitText(s, 80)
	assert.True(t, strings.HasSuffix(got, "[TRUNCATED]"))
	assert.Contains(t, got, ".")
}

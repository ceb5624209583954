package news

import (
	"context"
	"fmt"
	"os"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/ainews/internal/logger"
)

// Rule score points.
const (
	modelUpdatePoints   = 40
	newProductPoints    = 25
	breakthroughPoints  = 20
	officialPoints      = 15
	unofficialPoints    = 5
	twoSourcesPoints    = 10
	manySourcesPoints   = 20
	maxRuleScore        = 100
	DefaultModelScore   = 50
	manySourcesMinCount = 3
)

// KeywordRules are the configurable inputs of the rule score.
type KeywordRules struct {
	ModelUpdate     []string `yaml:"model_update"`
	NewProduct      []string `yaml:"new_product"`
	Breakthrough    []string `yaml:"breakthrough"`
	OfficialSources []string `yaml:"official_sources"`
}

// DefaultKeywordRules returns the built-in keyword lists.
func DefaultKeywordRules() KeywordRules {
	return KeywordRules{
		ModelUpdate:     []string{"GPT", "Claude", "Gemini", "Llama", "DeepSeek", "model release", "new model"},
		NewProduct:      []string{"launch", "release", "introduce", "new product"},
		Breakthrough:    []string{"video model", "multimodal", "reasoning", "agent"},
		OfficialSources: []string{"OpenAI", "Google", "Anthropic", "Meta", "Microsoft", "NVIDIA"},
	}
}

// LoadKeywordRules reads rules from a YAML file. Lists missing from the file keep their defaults.
func LoadKeywordRules(path string) (KeywordRules, error) {
	rules := DefaultKeywordRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read scoring rules %s: %w", path, err)
	}

	var fileRules KeywordRules
	if err := yaml.Unmarshal(data, &fileRules); err != nil {
		return rules, fmt.Errorf("parse scoring rules %s: %w", path, err)
	}
	if len(fileRules.ModelUpdate) > 0 {
		rules.ModelUpdate = fileRules.ModelUpdate
	}
	if len(fileRules.NewProduct) > 0 {
		rules.NewProduct = fileRules.NewProduct
	}
	if len(fileRules.Breakthrough) > 0 {
		rules.Breakthrough = fileRules.Breakthrough
	}
	if len(fileRules.OfficialSources) > 0 {
		rules.OfficialSources = fileRules.OfficialSources
	}
	return rules, nil
}

type keywordGroup struct {
	points  int
	matcher *ahocorasick.Matcher
}

// RuleScorer computes the deterministic part of the importance score.
type RuleScorer struct {
	groups   []keywordGroup
	official []string
}

// NewRuleScorer compiles keyword lists into matchers.
func NewRuleScorer(rules KeywordRules) *RuleScorer {
	s := &RuleScorer{
		groups: []keywordGroup{
			{points: modelUpdatePoints, matcher: compile(rules.ModelUpdate)},
			{points: newProductPoints, matcher: compile(rules.NewProduct)},
			{points: breakthroughPoints, matcher: compile(rules.Breakthrough)},
		},
	}
	for _, o := range rules.OfficialSources {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			s.official = append(s.official, o)
		}
	}
	return s
}

func compile(keywords []string) *ahocorasick.Matcher {
	var dict []string
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			dict = append(dict, k)
		}
	}
	if len(dict) == 0 {
		return nil
	}
	return ahocorasick.NewStringMatcher(dict)
}

// RuleScore scores a cluster from its title, summaries and sources. Each keyword
// group adds its points at most once. The result is always within [0,100].
func (s *RuleScorer) RuleScore(c *Cluster) int {
	text := []byte(strings.ToLower(c.Title + " " + strings.Join(c.Summaries, " ")))

	score := 0
	for _, g := range s.groups {
		if g.matcher != nil && len(g.matcher.MatchThreadSafe(text)) > 0 {
			score += g.points
		}
	}

	if s.isOfficial(c.Sources) {
		score += officialPoints
	} else {
		score += unofficialPoints
	}

	switch n := len(c.Sources); {
	case n >= manySourcesMinCount:
		score += manySourcesPoints
	case n == 2:
		score += twoSourcesPoints
	}

	return clamp(score, 0, maxRuleScore)
}

func (s *RuleScorer) isOfficial(sources []string) bool {
	for _, src := range sources {
		src = strings.ToLower(src)
		for _, o := range s.official {
			if strings.Contains(src, o) {
				return true
			}
		}
	}
	return false
}

// ModelScorer returns an external importance judgment in [0,100].
type ModelScorer interface {
	ModelScore(ctx context.Context, c *Cluster) (int, error)
}

// Scorer attaches rule, model and final scores to clusters.
type Scorer struct {
	rules *RuleScorer
	model ModelScorer
	log   logger.Logger

	// OnModelFallback, when set, is called each time the default model score is used.
	OnModelFallback func(err error)
}

// NewScorer builds a scorer. A nil model makes every model score the default.
func NewScorer(log logger.Logger, rules *RuleScorer, model ModelScorer) *Scorer {
	return &Scorer{rules: rules, model: model, log: log}
}

// Score scores every cluster once. The model judgment may differ between calls,
// so scoring the same cluster twice can give different final scores.
func (s *Scorer) Score(ctx context.Context, clusters []*Cluster) []ScoredCluster {
	s.log.Info("Scoring clusters", logger.Int("clusters", len(clusters)))

	scored := make([]ScoredCluster, 0, len(clusters))
	for _, c := range clusters {
		rule := s.rules.RuleScore(c)
		model := s.modelScore(ctx, c)
		sc := ScoredCluster{Cluster: c, Score: NewScore(rule, model)}
		s.log.Debug("Scored",
			logger.String("title", truncate(c.Title, 60)),
			logger.Int("rule", rule),
			logger.Int("model", model),
			logger.Float64("final", sc.Score.Final))
		scored = append(scored, sc)
	}
	return scored
}

func (s *Scorer) modelScore(ctx context.Context, c *Cluster) int {
	if s.model == nil {
		s.fallback(nil)
		return DefaultModelScore
	}
	score, err := s.model.ModelScore(ctx, c)
	if err != nil {
		s.log.Warn("Model score unavailable, using default",
			logger.String("title", truncate(c.Title, 60)),
			logger.Error(err))
		s.fallback(err)
		return DefaultModelScore
	}
	return score
}

func (s *Scorer) fallback(err error) {
	if s.OnModelFallback != nil {
		s.OnModelFallback(err)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

package news

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Default similarity thresholds. Merging is looser than dedup so that the same
// event worded differently by two publishers still lands in one cluster.
const (
	DefaultDedupThreshold = 0.8
	DefaultMergeThreshold = 0.7
)

// Similarity returns the Ratcliff/Obershelp ratio 2*M/T of two titles, compared
// rune by rune. An empty (or blank) title is dissimilar to everything, itself included.
func Similarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	m := difflib.NewMatcher(runes(a), runes(b))
	return m.Ratio()
}

// Similar reports whether the ratio strictly exceeds threshold.
func Similar(a, b string, threshold float64) bool {
	return Similarity(a, b) > threshold
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

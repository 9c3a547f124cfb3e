package usecase

import (
	"math"
	"sort"
	"strings"

	"github.com/dishbook/backend/internal/domain"
)

// Similarity index tuning. Scores use the 0 = identical, 1 = unrelated convention.
const (
	// AcceptanceThreshold excludes candidates whose raw alignment score reaches it
	AcceptanceThreshold = 0.3
	// MinMatchLength is the minimum number of aligned equal characters for a hit
	MinMatchLength = 3
	// MaxDistance caps the alignment edit cost and scales the location penalty
	MaxDistance = 100
)

// Searcher returns ranked catalog candidates for an already normalized name.
type Searcher interface {
	Query(normalizedName string) []domain.ScoredProduct
}

// IndexBuilder builds a Searcher over a catalog snapshot.
type IndexBuilder func(catalog []domain.Product) Searcher

// SimilarityIndex is a read-only fuzzy index over normalized product names.
type SimilarityIndex struct {
	entries []indexEntry
}

type indexEntry struct {
	product   domain.Product
	name      string
	runes     []rune
	fieldNorm float64
}

// BuildIndex normalizes every catalog name once. Catalog order is kept and
// used as the tie-break between equal scores.
func BuildIndex(catalog []domain.Product) *SimilarityIndex {
	return BuildIndexWith(defaultNormalizer, catalog)
}

// BuildIndexWith is BuildIndex with an explicit normalizer. Queries must be
// normalized by the same normalizer.
func BuildIndexWith(n Normalizer, catalog []domain.Product) *SimilarityIndex {
	entries := make([]indexEntry, 0, len(catalog))
	for _, p := range catalog {
		name := n.Normalize(p.Name)
		entries = append(entries, indexEntry{
			product:   p,
			name:      name,
			runes:     []rune(name),
			fieldNorm: fieldNorm(name),
		})
	}
	return &SimilarityIndex{entries: entries}
}

// Len returns the number of indexed products.
func (ix *SimilarityIndex) Len() int {
	return len(ix.entries)
}

// Query returns every accepted candidate, best (lowest score) first.
func (ix *SimilarityIndex) Query(normalizedName string) []domain.ScoredProduct {
	pattern := []rune(normalizedName)
	if len(pattern) == 0 {
		return nil
	}

	var hits []domain.ScoredProduct
	for _, e := range ix.entries {
		raw, ok := rawScore(pattern, normalizedName, e)
		if !ok {
			continue
		}
		hits = append(hits, domain.ScoredProduct{
			Product: e.product,
			Score:   applyFieldNorm(raw, e.fieldNorm),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score < hits[j].Score
	})
	return hits
}

// rawScore aligns pattern inside the candidate name and returns
// edits/len(pattern) + start/MaxDistance, or false when the candidate is rejected.
func rawScore(pattern []rune, normalized string, e indexEntry) (float64, bool) {
	if normalized == e.name {
		return 0, true
	}

	a := alignSubstring(pattern, e.runes)
	if a.cost > MaxDistance || a.matched < MinMatchLength {
		return 0, false
	}

	raw := a.score
	if raw >= AcceptanceThreshold {
		return 0, false
	}
	return raw, true
}

// alignment is the best placement of a pattern inside a text
type alignment struct {
	cost    int
	start   int
	matched int
	score   float64
}

// cell tracks, for a DP position, the edit cost, where the alignment started
// in the text and how many characters matched exactly on the way
type cell struct {
	cost    int
	start   int
	matched int
}

// better orders cells by cost, then matched characters, then earlier start
func (c cell) better(o cell) bool {
	if c.cost != o.cost {
		return c.cost < o.cost
	}
	if c.matched != o.matched {
		return c.matched > o.matched
	}
	return c.start < o.start
}

// alignSubstring is a semi-global Levenshtein: the pattern must be consumed
// entirely but may start and end anywhere in the text. Two rows are enough.
func alignSubstring(pattern, text []rune) alignment {
	m, n := len(pattern), len(text)

	prev := make([]cell, n+1)
	curr := make([]cell, n+1)

	// Empty pattern prefix: free start at every text position
	for j := 0; j <= n; j++ {
		prev[j] = cell{cost: 0, start: j}
	}

	for i := 1; i <= m; i++ {
		curr[0] = cell{cost: i, start: 0}
		for j := 1; j <= n; j++ {
			diag := prev[j-1]
			if pattern[i-1] == text[j-1] {
				diag.matched++
			} else {
				diag.cost++
			}

			best := diag

			// pattern character missing from the text
			del := prev[j]
			del.cost++
			if del.better(best) {
				best = del
			}

			// extra text character inside the match
			ins := curr[j-1]
			ins.cost++
			if ins.better(best) {
				best = ins
			}

			curr[j] = best
		}
		prev, curr = curr, prev
	}

	var result alignment
	result.score = math.Inf(1)
	for j := 0; j <= n; j++ {
		c := prev[j]
		s := float64(c.cost)/float64(m) + float64(c.start)/float64(MaxDistance)
		if s < result.score || (s == result.score && c.matched > result.matched) {
			result = alignment{cost: c.cost, start: c.start, matched: c.matched, score: s}
		}
	}
	return result
}

// fieldNorm dampens matches inside long names: 1/sqrt(token count), rounded
// to three decimals.
func fieldNorm(name string) float64 {
	tokens := len(strings.Fields(name))
	if tokens == 0 {
		return 1
	}
	return math.Round(1000/math.Sqrt(float64(tokens))) / 1000
}

func applyFieldNorm(raw, norm float64) float64 {
	if raw <= 0 {
		return 0
	}
	return clampScore(math.Pow(raw, norm))
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s > 1:
		return 1
	case s < 0:
		return 0
	default:
		return s
	}
}

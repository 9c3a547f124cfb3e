package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/dishbook/backend/internal/domain"
)

// Heuristic model defaults
const (
	defaultHeuristicMatchAt = 0.85
)

// HeuristicModel is an offline SemanticModel: Jaro-Winkler similarity between
// descriptor-stripped normalized names. It catches inflection and adjective
// noise but knows no synonyms.
type HeuristicModel struct {
	preprocessor *IngredientPreprocessor
	metric       *metrics.JaroWinkler
	matchAt      float64
}

// NewHeuristicModel creates a heuristic model. matchAt is the similarity from
// which a candidate counts as a match; non-positive values use 0.85.
func NewHeuristicModel(matchAt float64) *HeuristicModel {
	if matchAt <= 0 || matchAt > 1 {
		matchAt = defaultHeuristicMatchAt
	}
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	return &HeuristicModel{
		preprocessor: NewIngredientPreprocessor(false),
		metric:       jw,
		matchAt:      matchAt,
	}
}

// CompareProducts picks the most similar candidate.
func (m *HeuristicModel) CompareProducts(
	ctx context.Context,
	recognizedName string,
	candidates []domain.Candidate,
	matchScore float64,
) (*domain.ModelVerdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verdict := &domain.ModelVerdict{MatchedIndex: -1}
	if len(candidates) == 0 {
		verdict.Reason = "no candidates"
		return verdict, nil
	}

	name := m.preprocessor.StripDescriptors(recognizedName)

	bestIdx := -1
	bestSim := -1.0
	for i, c := range candidates {
		candidate := m.preprocessor.StripDescriptors(c.Name)
		sim := strutil.Similarity(name, candidate, m.metric)
		// a candidate whose every word appears in the recognized name, or the
		// other way around, is a variety of the same product ("masło" / "masło ekstra")
		if containsAllWords(name, candidate) || containsAllWords(candidate, name) {
			sim = max(sim, m.matchAt)
		}
		if sim > bestSim {
			bestSim = sim
			bestIdx = i
		}
	}

	verdict.Confidence = clampScore(bestSim)
	if bestSim >= m.matchAt {
		verdict.IsMatch = true
		verdict.MatchedIndex = bestIdx
		verdict.Reason = fmt.Sprintf("%q resembles %q (similarity %.2f)", recognizedName, candidates[bestIdx].Name, bestSim)
	} else {
		verdict.Reason = fmt.Sprintf("no candidate close enough to %q (best %.2f)", recognizedName, bestSim)
	}
	return verdict, nil
}

// containsAllWords reports whether every word of sub occurs in s.
func containsAllWords(s, sub string) bool {
	words := strings.Fields(sub)
	if len(words) == 0 {
		return false
	}
	have := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		have[w] = true
	}
	for _, w := range words {
		if !have[w] {
			return false
		}
	}
	return true
}

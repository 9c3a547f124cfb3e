package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// Engine score bands, half-open: [0, AutoAcceptBelow) accept,
// [AutoAcceptBelow, RejectFrom) verify, [RejectFrom, 1] reject.
const (
	AutoAcceptBelow = 0.2
	RejectFrom      = 0.6
)

// Verifier confidence bands used by the engine
const (
	verifiedConfidence  = 0.7 // strictly above: automatic accept
	suggestedConfidence = 0.5 // strictly above: suggestion only
)

// Result sizes
const (
	MaxSuggestions   = 5
	MaxVerifyInputs  = 3
	noCandidateScore = 1.0
)

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	// Concurrency is the number of ingredients matched in parallel. Values
	// below 2 keep the sequential behavior.
	Concurrency        int
	EnableDebugLogging bool
	// Normalizer is applied to both catalog names and ingredient names.
	Normalizer Normalizer
	// IndexBuilder overrides the similarity index, mostly for tests.
	IndexBuilder IndexBuilder
}

// MatchingService reconciles recognized ingredients with a product catalog
type MatchingService struct {
	verifier           domain.Verifier
	normalizer         Normalizer
	buildIndex         IndexBuilder
	concurrency        int
	enableDebugLogging bool
}

// NewMatchingService creates a new matching service. A nil verifier makes
// every ambiguous candidate a suggestion.
func NewMatchingService(verifier domain.Verifier, config MatchConfig) *MatchingService {
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	normalizer := config.Normalizer
	buildIndex := config.IndexBuilder
	if buildIndex == nil {
		buildIndex = func(catalog []domain.Product) Searcher {
			return BuildIndexWith(normalizer, catalog)
		}
	}

	return &MatchingService{
		verifier:           verifier,
		normalizer:         normalizer,
		buildIndex:         buildIndex,
		concurrency:        concurrency,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// MatchAll returns one decision per ingredient, in input order. It never fails:
// verifier errors degrade the affected ingredient to a suggestion.
func (s *MatchingService) MatchAll(
	ctx context.Context,
	ingredients []domain.RecognizedIngredient,
	catalog []domain.Product,
) []domain.MatchDecision {
	decisions := make([]domain.MatchDecision, len(ingredients))

	if len(catalog) == 0 {
		for i, ing := range ingredients {
			decisions[i] = newDecision(ing)
		}
		return decisions
	}

	index := s.buildIndex(catalog)

	if s.concurrency == 1 || len(ingredients) < 2 {
		for i, ing := range ingredients {
			decisions[i] = s.matchOne(ctx, index, ing)
		}
		return decisions
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, ing := range ingredients {
		i, ing := i, ing
		g.Go(func() error {
			decisions[i] = s.matchOne(ctx, index, ing)
			return nil
		})
	}
	_ = g.Wait()

	return decisions
}

// newDecision is the automatic create-new verdict used when nothing can match
func newDecision(ing domain.RecognizedIngredient) domain.MatchDecision {
	return domain.MatchDecision{
		RecognizedName:     ing.Name,
		RecognizedQuantity: ing.Quantity,
		RecognizedUnit:     ing.Unit,
		MatchScore:         noCandidateScore,
		Suggestions:        []domain.Product{},
		Action:             domain.ActionCreateNew,
	}
}

func (s *MatchingService) matchOne(ctx context.Context, index Searcher, ing domain.RecognizedIngredient) domain.MatchDecision {
	decision := newDecision(ing)

	normalized := s.normalizer.Normalize(ing.Name)
	hits := index.Query(normalized)

	if s.enableDebugLogging {
		for _, h := range hits {
			logger.Logger.Debugw("[MATCH] candidate",
				"ingredient", ing.Name, "normalized", normalized,
				"product", h.Product.Name, "score", h.Score)
		}
	}

	decision.Suggestions = topProducts(hits, MaxSuggestions)
	if len(hits) == 0 {
		return decision
	}

	best := hits[0]
	decision.MatchScore = clampScore(best.Score)

	switch {
	case decision.MatchScore < AutoAcceptBelow:
		accept(&decision, best.Product)

	case decision.MatchScore < RejectFrom:
		s.verifyAmbiguous(ctx, &decision, ing.Name, hits)

	default:
		// rejected: nothing surfaced besides the suggestions
	}

	if s.enableDebugLogging {
		logger.Logger.Debugw("[MATCH] decision",
			"ingredient", ing.Name, "score", decision.MatchScore, "action", decision.Action)
	}

	return decision
}

// verifyAmbiguous escalates a mid-band candidate to the verifier
func (s *MatchingService) verifyAmbiguous(
	ctx context.Context,
	decision *domain.MatchDecision,
	recognizedName string,
	hits []domain.ScoredProduct,
) {
	best := hits[0].Product

	if s.verifier == nil {
		decision.MatchedProduct = productPtr(best)
		return
	}

	candidates := hits
	if len(candidates) > MaxVerifyInputs {
		candidates = candidates[:MaxVerifyInputs]
	}

	req := domain.VerificationRequest{
		RecognizedName: recognizedName,
		Candidates:     toCandidates(candidates),
		MatchScore:     decision.MatchScore,
	}

	verification, err := s.verifier.Verify(ctx, req)
	if err == nil && (verification == nil || !validConfidence(verification.Confidence)) {
		err = domain.ErrMalformedVerification
	}
	if err != nil {
		logger.Logger.Warnw("product match verification failed, keeping fuzzy suggestion",
			"ingredient", recognizedName, "candidate", best.Name, "score", decision.MatchScore, "error", err)
		decision.MatchedProduct = productPtr(best)
		return
	}

	chosen := resolveVerified(verification.MatchedProduct, candidates, best)

	switch {
	case verification.IsMatch && verification.Confidence > verifiedConfidence:
		accept(decision, chosen)
	case verification.IsMatch && verification.Confidence > suggestedConfidence:
		decision.MatchedProduct = productPtr(chosen)
	default:
		// verifier rejected the candidates
	}
}

// resolveVerified maps the verifier's {id, name} back onto a catalog product.
// Unknown ids fall back to the best fuzzy candidate.
func resolveVerified(matched *domain.Candidate, candidates []domain.ScoredProduct, best domain.Product) domain.Product {
	if matched == nil {
		return best
	}
	for _, c := range candidates {
		if c.Product.ID == matched.ID {
			return c.Product
		}
	}
	return best
}

func validConfidence(c float64) bool {
	return c >= 0 && c <= 1
}

func accept(decision *domain.MatchDecision, p domain.Product) {
	decision.Action = domain.ActionUseExisting
	decision.MatchedProduct = productPtr(p)
	id := p.ID
	decision.SelectedProductID = &id
}

func topProducts(hits []domain.ScoredProduct, limit int) []domain.Product {
	if len(hits) < limit {
		limit = len(hits)
	}
	products := make([]domain.Product, 0, limit)
	for _, h := range hits[:limit] {
		products = append(products, h.Product)
	}
	return products
}

func toCandidates(hits []domain.ScoredProduct) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, domain.Candidate{ID: h.Product.ID, Name: h.Product.Name})
	}
	return candidates
}

func productPtr(p domain.Product) *domain.Product {
	return &p
}

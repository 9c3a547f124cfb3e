package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// Boundary short-circuits. These are independent from the engine's own
// 0.2 / 0.6 bands and must stay that way.
const (
	VerifyAcceptBelow = 0.2
	VerifyRejectFrom  = 0.8
)

// Reasons returned without consulting the model
const (
	reasonNoCandidates = "no candidates to verify"
	reasonVeryClose    = "match very close"
	reasonTooWeak      = "match too weak"
	reasonMissing      = "no reason given"
)

// VerificationServiceConfig holds configuration for the verification service
type VerificationServiceConfig struct {
	CacheTTL time.Duration
}

// VerificationService is the semantic verifier boundary: it answers the
// obvious cases itself and asks a SemanticModel about the rest. It satisfies
// domain.Verifier so the matching engine can call it in-process.
type VerificationService struct {
	cache    domain.CacheRepository
	model    domain.SemanticModel
	cacheTTL time.Duration
}

// NewVerificationService creates a new verification service with dependencies.
// cache may be nil to disable verdict caching.
func NewVerificationService(
	cache domain.CacheRepository,
	model domain.SemanticModel,
	config VerificationServiceConfig,
) *VerificationService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &VerificationService{
		cache:    cache,
		model:    model,
		cacheTTL: cacheTTL,
	}
}

// Verify decides whether req.RecognizedName refers to one of req.Candidates.
// Flow: short-circuits -> cache -> model -> cache -> return
func (s *VerificationService) Verify(ctx context.Context, req domain.VerificationRequest) (*domain.Verification, error) {
	if len(req.Candidates) > MaxVerifyInputs {
		return nil, errors.Wrapf(domain.ErrInvalidRequest, "%d candidates, at most %d allowed", len(req.Candidates), MaxVerifyInputs)
	}

	if len(req.Candidates) == 0 {
		return &domain.Verification{IsMatch: false, Confidence: 0, Reason: reasonNoCandidates}, nil
	}

	if req.MatchScore < VerifyAcceptBelow {
		return &domain.Verification{IsMatch: true, Confidence: clampScore(1 - req.MatchScore), Reason: reasonVeryClose}, nil
	}

	if req.MatchScore >= VerifyRejectFrom {
		return &domain.Verification{IsMatch: false, Confidence: 0, Reason: reasonTooWeak}, nil
	}

	if s.model == nil {
		return nil, errors.Mark(errors.New("no semantic model configured"), domain.ErrVerifierUnavailable)
	}

	cacheKey := s.generateCacheKey(req)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	verdict, err := s.model.CompareProducts(ctx, req.RecognizedName, req.Candidates, req.MatchScore)
	if err != nil {
		return nil, errors.Wrap(err, "semantic model comparison")
	}
	if verdict == nil {
		return nil, errors.Wrap(domain.ErrMalformedVerification, "semantic model returned no verdict")
	}

	verification := mapVerdict(verdict, req.Candidates)

	if err := s.setInCache(ctx, cacheKey, verification); err != nil {
		// A cold cache only costs another model call
		logger.Logger.Warnw("failed to cache verification", "key", cacheKey, "error", err)
	}

	return verification, nil
}

// mapVerdict turns a model verdict into a boundary answer. A match needs a
// valid candidate index.
func mapVerdict(verdict *domain.ModelVerdict, candidates []domain.Candidate) *domain.Verification {
	validIndex := verdict.MatchedIndex >= 0 && verdict.MatchedIndex < len(candidates)

	v := &domain.Verification{
		IsMatch:    verdict.IsMatch && validIndex,
		Confidence: clampScore(verdict.Confidence),
		Reason:     strings.TrimSpace(verdict.Reason),
	}
	if v.Reason == "" {
		v.Reason = reasonMissing
	}
	if validIndex {
		c := candidates[verdict.MatchedIndex]
		v.MatchedProduct = &c
	}
	return v
}

// generateCacheKey creates a cache key from the normalized name, the candidate
// ids and the prior score rounded to two decimals.
// Format: "verify:{normalized_name}:{id,id,id}:{score}"
func (s *VerificationService) generateCacheKey(req domain.VerificationRequest) string {
	ids := make([]string, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		ids = append(ids, c.ID)
	}
	return fmt.Sprintf("verify:%s:%s:%.2f", Normalize(req.RecognizedName), strings.Join(ids, ","), req.MatchScore)
}

// getFromCache retrieves a verification from cache
func (s *VerificationService) getFromCache(ctx context.Context, key string) (*domain.Verification, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var v domain.Verification
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode cached verification"), domain.ErrCacheMiss)
	}
	return &v, nil
}

// setInCache stores a verification in cache
func (s *VerificationService) setInCache(ctx context.Context, key string, v *domain.Verification) error {
	if s.cache == nil {
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode verification")
	}
	return s.cache.Set(ctx, key, raw, s.cacheTTL)
}

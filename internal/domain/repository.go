package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Verifier adjudicates ambiguous fuzzy matches. Implementations must be
// idempotent and safe to retry.
type Verifier interface {
	Verify(ctx context.Context, req VerificationRequest) (*Verification, error)
}

// SemanticModel compares a recognized product name against candidate names.
type SemanticModel interface {
	CompareProducts(ctx context.Context, recognizedName string, candidates []Candidate, matchScore float64) (*ModelVerdict, error)
}

// CatalogRepository is the catalog read boundary plus the product persistence boundary.
type CatalogRepository interface {
	// ListProducts returns the global products plus the ones owned by userID.
	ListProducts(ctx context.Context, userID string) ([]Product, error)
	// ListTags returns the global tags plus the ones owned by userID.
	ListTags(ctx context.Context, userID string) ([]Tag, error)
	// CreateProducts persists newly created products.
	CreateProducts(ctx context.Context, products []Product) error
}

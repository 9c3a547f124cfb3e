package domain

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when a product id does not resolve in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogUnavailable is returned when the product catalog cannot be read or written
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrVerifierUnavailable is returned when the semantic verifier cannot be reached
	// or answers with a non-success status
	ErrVerifierUnavailable = errors.New("verifier request failed")

	// ErrMalformedVerification is returned when a verifier or model reply does not
	// carry the required fields or carries out-of-range values
	ErrMalformedVerification = errors.New("malformed verification response")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

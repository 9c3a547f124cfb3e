package verifier

import (
	"github.com/cockroachdb/errors"

	"github.com/dishbook/backend/internal/domain"
)

// WireRequest is the verify-product-match request body
type WireRequest struct {
	RecognizedName string          `json:"recognizedName"`
	Candidates     []WireCandidate `json:"candidates"`
	MatchScore     float64         `json:"matchScore"`
}

type WireCandidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WireResponse keeps required fields as pointers so a missing field is
// distinguishable from a zero value.
type WireResponse struct {
	IsMatch        *bool          `json:"isMatch"`
	Confidence     *float64       `json:"confidence"`
	Reason         *string        `json:"reason"`
	MatchedProduct *WireCandidate `json:"matchedProduct"`
	Error          string         `json:"error,omitempty"`
}

// ToWireRequest converts a domain request to the wire body
func ToWireRequest(req domain.VerificationRequest) WireRequest {
	candidates := make([]WireCandidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, WireCandidate{ID: c.ID, Name: c.Name})
	}
	return WireRequest{
		RecognizedName: req.RecognizedName,
		Candidates:     candidates,
		MatchScore:     req.MatchScore,
	}
}

// MapToVerification validates a decoded reply and converts it to the domain
// type. isMatch and confidence are required, confidence must lie in [0,1].
func MapToVerification(resp *WireResponse) (*domain.Verification, error) {
	if resp == nil {
		return nil, errors.Wrap(domain.ErrMalformedVerification, "empty body")
	}
	if resp.IsMatch == nil {
		return nil, errors.Wrap(domain.ErrMalformedVerification, "missing isMatch")
	}
	if resp.Confidence == nil {
		return nil, errors.Wrap(domain.ErrMalformedVerification, "missing confidence")
	}
	if c := *resp.Confidence; c < 0 || c > 1 {
		return nil, errors.Wrapf(domain.ErrMalformedVerification, "confidence %v out of range", c)
	}

	v := &domain.Verification{
		IsMatch:    *resp.IsMatch,
		Confidence: *resp.Confidence,
	}
	if resp.Reason != nil {
		v.Reason = *resp.Reason
	}
	if resp.MatchedProduct != nil && resp.MatchedProduct.ID != "" {
		v.MatchedProduct = &domain.Candidate{ID: resp.MatchedProduct.ID, Name: resp.MatchedProduct.Name}
	}
	return v, nil
}

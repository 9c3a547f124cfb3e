package verifier

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dishbook/backend/internal/domain"
)

func TestToWireRequest(t *testing.T) {
	wire := ToWireRequest(testRequest())

	assert.Equal(t, "jajka", wire.RecognizedName)
	assert.Equal(t, []WireCandidate{{ID: "p1", Name: "Jabłka"}, {ID: "p2", Name: "Jajko"}}, wire.Candidates)
	assert.Equal(t, 0.4, wire.MatchScore)
}

func TestToWireRequest_NoCandidates(t *testing.T) {
	wire := ToWireRequest(domain.VerificationRequest{RecognizedName: "x"})

	assert.NotNil(t, wire.Candidates)
	assert.Empty(t, wire.Candidates)
}

func TestMapToVerification(t *testing.T) {
	yes := true
	conf := 0.75
	reason := "same product"

	t.Run("maps all fields", func(t *testing.T) {
		v, err := MapToVerification(&WireResponse{
			IsMatch: &yes, Confidence: &conf, Reason: &reason,
			MatchedProduct: &WireCandidate{ID: "p1", Name: "Mleko"},
		})

		require.NoError(t, err)
		assert.True(t, v.IsMatch)
		assert.Equal(t, 0.75, v.Confidence)
		assert.Equal(t, "same product", v.Reason)
		assert.Equal(t, &domain.Candidate{ID: "p1", Name: "Mleko"}, v.MatchedProduct)
	})

	t.Run("reason and product are optional", func(t *testing.T) {
		v, err := MapToVerification(&WireResponse{IsMatch: &yes, Confidence: &conf})

		require.NoError(t, err)
		assert.Empty(t, v.Reason)
		assert.Nil(t, v.MatchedProduct)
	})

	t.Run("product without id is dropped", func(t *testing.T) {
		v, err := MapToVerification(&WireResponse{IsMatch: &yes, Confidence: &conf, MatchedProduct: &WireCandidate{Name: "x"}})

		require.NoError(t, err)
		assert.Nil(t, v.MatchedProduct)
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := MapToVerification(nil)
		assert.True(t, errors.Is(err, domain.ErrMalformedVerification))
	})
}

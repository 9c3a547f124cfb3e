package domain

// Action is the resolution verdict for a recognized ingredient
type Action string

const (
	ActionUseExisting Action = "use_existing"
	ActionCreateNew   Action = "create_new"
	ActionEdit        Action = "edit"
)

// ScoredProduct is a Similarity Index hit. Score is distance-like: 0 = identical, 1 = unrelated.
type ScoredProduct struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// MatchDecision is the engine's verdict for one recognized ingredient.
type MatchDecision struct {
	RecognizedName     string    `json:"recognizedName"`
	RecognizedQuantity string    `json:"recognizedQuantity"`
	RecognizedUnit     string    `json:"recognizedUnit"`
	MatchedProduct     *Product  `json:"matchedProduct"`
	MatchScore         float64   `json:"matchScore"`
	Suggestions        []Product `json:"suggestions"`
	Action             Action    `json:"action"`
	SelectedProductID  *string   `json:"selectedProductId,omitempty"`
	EditedName         *string   `json:"editedName,omitempty"`
}

// Candidate is the {id, name} pair sent across the verifier boundary.
type Candidate struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// VerificationRequest asks the verifier whether RecognizedName refers to one of Candidates.
// At most three candidates cross the boundary.
type VerificationRequest struct {
	RecognizedName string      `json:"recognizedName"`
	Candidates     []Candidate `json:"candidates" binding:"max=3,dive"`
	MatchScore     float64     `json:"matchScore"`
}

// Verification is the verifier's answer. Confidence lies in [0,1].
type Verification struct {
	IsMatch        bool       `json:"isMatch"`
	Confidence     float64    `json:"confidence"`
	Reason         string     `json:"reason"`
	MatchedProduct *Candidate `json:"matchedProduct,omitempty"`
}

// ModelVerdict is the raw answer of a semantic model. MatchedIndex points into the
// candidate list, -1 when nothing matched.
type ModelVerdict struct {
	IsMatch      bool    `json:"isMatch"`
	MatchedIndex int     `json:"matchedIndex"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
}

// IngredientBinding is a finalized dish ingredient handed to persistence.
type IngredientBinding struct {
	ProductID string   `json:"productId"`
	Quantity  *float64 `json:"quantity"`
	UnitCode  *string  `json:"unitCode"`
}

// Finalization is the outcome of a reviewed match batch: bindings in input order
// plus the products that have to be created for them.
type Finalization struct {
	Bindings    []IngredientBinding `json:"bindings"`
	NewProducts []Product           `json:"newProducts"`
}

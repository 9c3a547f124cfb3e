package usecase

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// ReviewStatus is the display label of a decision under review
type ReviewStatus string

const (
	StatusMatched ReviewStatus = "matched"
	StatusNew     ReviewStatus = "new"
	StatusEdited  ReviewStatus = "edited"
	StatusPending ReviewStatus = "pending"
)

// ReviewService applies user edits to a batch of match decisions and turns the
// reviewed batch into ingredient bindings.
type ReviewService struct {
	preprocessor *IngredientPreprocessor
	normalizer   Normalizer
	newID        func() string
}

// NewReviewService creates a review service. normalizer should be the one the
// matching engine uses so new product names fold the same way. New product ids
// are random UUIDs.
func NewReviewService(preprocessor *IngredientPreprocessor, normalizer Normalizer) *ReviewService {
	if preprocessor == nil {
		preprocessor = NewIngredientPreprocessor(false)
	}
	return &ReviewService{
		preprocessor: preprocessor,
		normalizer:   normalizer,
		newID:        uuid.NewString,
	}
}

// Status derives the display label purely from action and selection.
func Status(d domain.MatchDecision) ReviewStatus {
	switch {
	case d.Action == domain.ActionUseExisting && d.SelectedProductID != nil:
		return StatusMatched
	case d.Action == domain.ActionCreateNew:
		return StatusNew
	case d.Action == domain.ActionEdit:
		return StatusEdited
	default:
		return StatusPending
	}
}

func checkIndex(decisions []domain.MatchDecision, i int) error {
	if i < 0 || i >= len(decisions) {
		return errors.Wrapf(domain.ErrInvalidRequest, "decision index %d out of range [0,%d)", i, len(decisions))
	}
	return nil
}

// SelectProduct binds decision i to productID. catalog is the user's visible
// snapshot; suggestions carried by the decision are not trusted.
func (s *ReviewService) SelectProduct(decisions []domain.MatchDecision, i int, productID string, catalog []domain.Product) error {
	if err := checkIndex(decisions, i); err != nil {
		return err
	}

	d := &decisions[i]
	product, ok := lookupProduct(productID, catalog)
	if !ok {
		return errors.Wrapf(domain.ErrProductNotFound, "product %q", productID)
	}

	accept(d, product)
	return nil
}

func lookupProduct(id string, catalog []domain.Product) (domain.Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// ClearSelection drops the chosen product and falls back to creating a new one.
func (s *ReviewService) ClearSelection(decisions []domain.MatchDecision, i int) error {
	if err := checkIndex(decisions, i); err != nil {
		return err
	}

	d := &decisions[i]
	d.Action = domain.ActionCreateNew
	d.SelectedProductID = nil
	d.MatchedProduct = nil
	return nil
}

// EditName overrides the product name of decision i. Text that differs from
// the recognized name switches to edit, anything else to create_new; blank
// text restores the recognized name.
func (s *ReviewService) EditName(decisions []domain.MatchDecision, i int, name string) error {
	if err := checkIndex(decisions, i); err != nil {
		return err
	}

	d := &decisions[i]
	trimmed := strings.TrimSpace(name)

	if trimmed != "" && trimmed != d.RecognizedName {
		d.Action = domain.ActionEdit
	} else {
		d.Action = domain.ActionCreateNew
	}
	if trimmed == "" {
		trimmed = d.RecognizedName
	}
	d.EditedName = &trimmed
	d.SelectedProductID = nil
	return nil
}

// Remove drops decision i; the ingredient will not be part of the dish.
func (s *ReviewService) Remove(decisions []domain.MatchDecision, i int) ([]domain.MatchDecision, error) {
	if err := checkIndex(decisions, i); err != nil {
		return decisions, err
	}
	out := make([]domain.MatchDecision, 0, len(decisions)-1)
	out = append(out, decisions[:i]...)
	return append(out, decisions[i+1:]...), nil
}

// Finalize turns reviewed decisions into bindings, in order. Decisions that do
// not reuse a product create one owned by ownerID; equal names (after
// normalization) share one new product. Decisions without any usable name are
// skipped. Every selected product must be in catalog, the owner's visible
// snapshot, or the whole batch fails with ErrProductNotFound.
func (s *ReviewService) Finalize(decisions []domain.MatchDecision, ownerID string, catalog []domain.Product) (*domain.Finalization, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.Wrap(domain.ErrInvalidRequest, "owner id is required")
	}

	result := &domain.Finalization{
		Bindings:    make([]domain.IngredientBinding, 0, len(decisions)),
		NewProducts: []domain.Product{},
	}
	created := make(map[string]string)

	visible := make(map[string]bool, len(catalog))
	for _, p := range catalog {
		visible[p.ID] = true
	}

	for i, d := range decisions {
		var productID string

		if d.Action == domain.ActionUseExisting && d.SelectedProductID != nil && *d.SelectedProductID != "" {
			productID = *d.SelectedProductID
			if !visible[productID] {
				return nil, errors.Wrapf(domain.ErrProductNotFound, "decision %d selects product %q", i, productID)
			}
		} else {
			name := d.RecognizedName
			if d.EditedName != nil && strings.TrimSpace(*d.EditedName) != "" {
				name = *d.EditedName
			}
			name = strings.TrimSpace(name)
			if name == "" {
				logger.Logger.Warnw("skipping ingredient without a name", "quantity", d.RecognizedQuantity)
				continue
			}

			key := s.normalizer.Normalize(name)
			id, ok := created[key]
			if !ok {
				id = s.newID()
				owner := ownerID
				result.NewProducts = append(result.NewProducts, domain.Product{ID: id, OwnerID: &owner, Name: name})
				created[key] = id
			}
			productID = id
		}

		result.Bindings = append(result.Bindings, domain.IngredientBinding{
			ProductID: productID,
			Quantity:  s.preprocessor.ParseQuantity(d.RecognizedQuantity),
			UnitCode:  s.unitCode(d.RecognizedUnit),
		})
	}

	return result, nil
}

// unitCode normalizes a recognized unit, defaulting to pieces
func (s *ReviewService) unitCode(unit string) *string {
	code, ok := s.preprocessor.NormalizeUnit(unit)
	if !ok {
		code = domain.UnitPiece
	}
	return &code
}

// ResolveTags keeps the existing tags whose name equals a recognized tag,
// ignoring case and surrounding space. Tags are never created here.
func ResolveTags(recognized []string, existing []domain.Tag) []domain.Tag {
	byName := make(map[string]domain.Tag, len(existing))
	for _, t := range existing {
		key := strings.ToLower(strings.TrimSpace(t.Name))
		if _, dup := byName[key]; !dup {
			byName[key] = t
		}
	}

	resolved := []domain.Tag{}
	seen := make(map[string]bool)
	for _, name := range recognized {
		t, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		resolved = append(resolved, t)
	}
	return resolved
}

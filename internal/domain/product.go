package domain

import "strings"

// Product is an entry of the shared products vocabulary. A nil OwnerID marks
// a global product visible to every user.
type Product struct {
	ID      string  `json:"id" db:"id"`
	OwnerID *string `json:"ownerId" db:"owner_id"`
	Name    string  `json:"name" db:"name"`
}

// VisibleTo reports whether the product belongs to the catalog of userID.
func (p Product) VisibleTo(userID string) bool {
	return p.OwnerID == nil || *p.OwnerID == userID
}

// FilterVisible keeps the global products plus the ones owned by userID,
// preserving catalog order.
func FilterVisible(products []Product, userID string) []Product {
	visible := make([]Product, 0, len(products))
	for _, p := range products {
		if p.VisibleTo(userID) {
			visible = append(visible, p)
		}
	}
	return visible
}

// Tag labels a dish. Same ownership rules as Product.
type Tag struct {
	ID      string  `json:"id" db:"id"`
	OwnerID *string `json:"ownerId" db:"owner_id"`
	Name    string  `json:"name" db:"name"`
}

// VisibleTo reports whether the tag belongs to the catalog of userID.
func (t Tag) VisibleTo(userID string) bool {
	return t.OwnerID == nil || *t.OwnerID == userID
}

// RecognizedIngredient is a single ingredient line produced by the recipe recognizer.
type RecognizedIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// RecognizedRecipe is the recognizer boundary payload.
type RecognizedRecipe struct {
	Name        string                 `json:"name"`
	Ingredients []RecognizedIngredient `json:"ingredients"`
	Tags        []string               `json:"tags,omitempty"`
}

// Unit codes accepted by the persistence layer
const (
	UnitPiece      = "szt"
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMillilitre = "ml"
	UnitLitre      = "l"
	UnitTablespoon = "łyżka"
	UnitTeaspoon   = "łyżeczka"
	UnitGlass      = "szklanka"
)

// Units lists the valid unit codes in display order.
var Units = []string{
	UnitPiece, UnitGram, UnitKilogram, UnitMillilitre,
	UnitLitre, UnitTablespoon, UnitTeaspoon, UnitGlass,
}

// IsUnit reports whether code is one of Units (case-insensitive).
func IsUnit(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, u := range Units {
		if u == code {
			return true
		}
	}
	return false
}

package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
)

// IngredientPreprocessor cleans the free-text parts of recognized ingredients:
// descriptive adjectives in names, quantities and units.
type IngredientPreprocessor struct {
	enableDebugLogging bool
}

// Compiled regex patterns for quantity parsing
var (
	// "1 1/2", "1 ½" after unicode fractions were expanded
	mixedFractionPattern = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)`)

	// "1/2"
	fractionPattern = regexp.MustCompile(`^(\d+)/(\d+)`)

	// Leading decimal number, "2" out of "2-3" or "200g"
	leadingNumberPattern = regexp.MustCompile(`^\d+(\.\d+)?|^\.\d+`)
)

var unicodeFractions = strings.NewReplacer(
	"½", " 1/2", "¼", " 1/4", "¾", " 3/4", "⅓", " 1/3", "⅔", " 2/3", "⅛", " 1/8",
)

// descriptorWords are adjectives that do not change which product is meant
// (size, freshness, origin). Stored as written, normalized at init.
var descriptorWords = []string{
	"mały", "mała", "małe", "małych",
	"duży", "duża", "duże", "dużych",
	"średni", "średnia", "średnie",
	"świeży", "świeża", "świeże", "świeżych",
	"młody", "młoda", "młode",
	"ekologiczny", "ekologiczna", "ekologiczne", "eko", "bio",
	"dojrzały", "dojrzała", "dojrzałe",
	"domowy", "domowa", "domowe",
	"polski", "polska", "polskie",
}

var normalizedDescriptors = func() map[string]bool {
	m := make(map[string]bool, len(descriptorWords))
	for _, w := range descriptorWords {
		m[Normalize(w)] = true
	}
	return m
}()

// unitAliases maps spelled-out or inflected units onto unit codes
var unitAliases = map[string]string{
	"sztuk":     domain.UnitPiece,
	"sztuka":    domain.UnitPiece,
	"sztuki":    domain.UnitPiece,
	"szt.":      domain.UnitPiece,
	"gram":      domain.UnitGram,
	"gramy":     domain.UnitGram,
	"gramów":    domain.UnitGram,
	"kilogram":  domain.UnitKilogram,
	"kilogramy": domain.UnitKilogram,
	"mililitr":  domain.UnitMillilitre,
	"mililitry": domain.UnitMillilitre,
	"litr":      domain.UnitLitre,
	"litry":     domain.UnitLitre,
	"łyżki":     domain.UnitTablespoon,
	"łyżek":     domain.UnitTablespoon,
	"łyżeczki":  domain.UnitTeaspoon,
	"łyżeczek":  domain.UnitTeaspoon,
	"szklanki":  domain.UnitGlass,
	"szklanek":  domain.UnitGlass,
}

// NewIngredientPreprocessor creates a new ingredient preprocessor
func NewIngredientPreprocessor(enableDebugLogging bool) *IngredientPreprocessor {
	return &IngredientPreprocessor{
		enableDebugLogging: enableDebugLogging,
	}
}

// StripDescriptors normalizes name and drops descriptive adjectives. When only
// descriptors remain the normalized name is returned unchanged.
func (p *IngredientPreprocessor) StripDescriptors(name string) string {
	normalized := Normalize(name)

	var kept []string
	for _, word := range strings.Fields(normalized) {
		if !normalizedDescriptors[word] {
			kept = append(kept, word)
		}
	}

	if len(kept) == 0 {
		return normalized
	}

	cleaned := strings.Join(kept, " ")
	if p.enableDebugLogging && cleaned != normalized {
		logger.Logger.Debugw("[PREPROCESS] stripped descriptors", "input", name, "output", cleaned)
	}
	return cleaned
}

// ParseQuantity reads the leading amount of a free-text quantity. Decimal
// commas, fractions and unicode fractions are understood; a range like "2-3"
// yields its first number. Returns nil when no amount is present.
func (p *IngredientPreprocessor) ParseQuantity(quantity string) *float64 {
	q := strings.TrimSpace(unicodeFractions.Replace(quantity))
	q = strings.ReplaceAll(q, ",", ".")
	if q == "" {
		return nil
	}

	if m := mixedFractionPattern.FindStringSubmatch(q); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		if frac, ok := fraction(m[2], m[3]); ok {
			v := whole + frac
			return &v
		}
	}

	if m := fractionPattern.FindStringSubmatch(q); m != nil {
		if v, ok := fraction(m[1], m[2]); ok {
			return &v
		}
		return nil
	}

	if m := leadingNumberPattern.FindString(q); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		return &v
	}

	if p.enableDebugLogging {
		logger.Logger.Debugw("[PREPROCESS] unparseable quantity", "quantity", quantity)
	}
	return nil
}

func fraction(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// NormalizeUnit maps a free-text unit onto a unit code. The second result is
// false for empty or unknown units.
func (p *IngredientPreprocessor) NormalizeUnit(unit string) (string, bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		return "", false
	}

	if code, ok := unitAliases[u]; ok {
		return code, true
	}

	u = strings.TrimSuffix(u, ".")
	if domain.IsUnit(u) {
		return u, true
	}

	if p.enableDebugLogging {
		logger.Logger.Debugw("[PREPROCESS] unknown unit", "unit", unit)
	}
	return "", false
}

// Package catalog holds the static feed tables: recipes per bird category and age
// bracket, and the substitutes suggested for ingredients a farmer cannot source.
//
// A Catalog is built once from YAML, validated against its ingredient vocabulary,
// and never mutated afterwards, so it can be shared freely between goroutines.
//
// # Schema
//
//	version: "1"
//	default_maturity_days: 140
//	max_maturity_days: 730
//	ingredients: [corn, soybean, fishmeal, sunflower meal, rice bran]
//	alternatives:
//	  fishmeal: [sunflower meal, rice bran]
//	categories:
//	  - name: Broilers
//	    maturity_days: 75
//	    brackets:
//	      - label: "Starter (0-4 weeks)"
//	        recipe: {corn: 40, soybean: 25, fishmeal: 10}
//
// Recipe values are grams per bird per day. Ingredient names are compared after
// trimming, lower-casing and collapsing inner whitespace.
package catalog

import (
	"strconv"
	"strings"
)

// Catalog is the validated, read-only feed table.
type Catalog struct {
	version             string
	defaultMaturityDays int
	maxMaturityDays     int
	ingredients         []string
	order               map[string]int
	alternatives        map[string][]string
	categories          []*Category
	byName              map[string]*Category
}

// Category is a poultry class with its own ordered age brackets.
type Category struct {
	name         string
	maturityDays int
	brackets     []*Bracket
	byLabel      map[string]*Bracket
}

// Bracket is an age or growth stage label and the recipe that applies to it.
type Bracket struct {
	label       string
	ingredients []string
	grams       map[string]float64
}

// NormalizeIngredient returns the canonical form of an ingredient name. Category
// names and bracket labels are keyed the same way.
func NormalizeIngredient(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Version reports the schema version of the loaded catalog.
func (c *Catalog) Version() string { return c.version }

// DefaultMaturityDays is used for categories without their own maturity setting.
func (c *Catalog) DefaultMaturityDays() int { return c.defaultMaturityDays }

// MaxMaturityDays bounds the feeding period a plan may cover, and with it the
// number of schedule rows.
func (c *Catalog) MaxMaturityDays() int { return c.maxMaturityDays }

// Ingredients returns the ingredient vocabulary in display order.
func (c *Catalog) Ingredients() []string {
	return append([]string(nil), c.ingredients...)
}

// HasIngredient reports whether name belongs to the vocabulary.
func (c *Catalog) HasIngredient(name string) bool {
	_, ok := c.order[NormalizeIngredient(name)]
	return ok
}

// Alternatives returns the ordered substitutes registered for an ingredient.
// The result is never nil.
func (c *Catalog) Alternatives(ingredient string) []string {
	alts := c.alternatives[NormalizeIngredient(ingredient)]
	out := make([]string, len(alts))
	copy(out, alts)
	return out
}

// Categories returns every category in declaration order.
func (c *Catalog) Categories() []*Category {
	return append([]*Category(nil), c.categories...)
}

// Category looks a category up by name, ignoring case.
func (c *Catalog) Category(name string) (*Category, bool) {
	cat, ok := c.byName[NormalizeIngredient(name)]
	return cat, ok
}

// Name is the display name of the category.
func (c *Category) Name() string { return c.name }

// MaturityDays is the number of days the category is fed until maturity.
func (c *Category) MaturityDays() int { return c.maturityDays }

// Brackets returns the category's brackets in order.
func (c *Category) Brackets() []*Bracket {
	return append([]*Bracket(nil), c.brackets...)
}

// Bracket looks a bracket up by its exact label, ignoring case.
func (c *Category) Bracket(label string) (*Bracket, bool) {
	b, ok := c.byLabel[NormalizeIngredient(label)]
	return b, ok
}

// ResolveBracket is the lenient lookup used by chat and CLI input. It accepts the
// label, a 1-based position, or a prefix matching exactly one label.
func (c *Category) ResolveBracket(token string) (*Bracket, bool) {
	if b, ok := c.Bracket(token); ok {
		return b, true
	}

	key := NormalizeIngredient(token)
	if key == "" {
		return nil, false
	}

	if idx, err := strconv.Atoi(key); err == nil {
		if idx >= 1 && idx <= len(c.brackets) {
			return c.brackets[idx-1], true
		}
		return nil, false
	}

	var match *Bracket
	for _, b := range c.brackets {
		if strings.HasPrefix(NormalizeIngredient(b.label), key) {
			if match != nil {
				return nil, false
			}
			match = b
		}
	}
	return match, match != nil
}

// Label is the display label of the bracket.
func (b *Bracket) Label() string { return b.label }

// Ingredients returns the recipe ingredients in vocabulary order.
func (b *Bracket) Ingredients() []string {
	return append([]string(nil), b.ingredients...)
}

// Grams returns the grams per bird per day for an ingredient of the recipe.
func (b *Bracket) Grams(ingredient string) (float64, bool) {
	g, ok := b.grams[NormalizeIngredient(ingredient)]
	return g, ok
}

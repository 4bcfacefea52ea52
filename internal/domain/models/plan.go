package models

import "github.com/shopspring/decimal"

// BagWeightKg is the weight of the standard ingredient bag prices are quoted for.
const BagWeightKg = 50

// PlanRequest carries the inputs of a single feed plan computation.
type PlanRequest struct {
	Category  string `json:"category"`
	Bracket   string `json:"bracket"`
	FlockSize int    `json:"flock_size"`
	// Available lists the ingredients the farmer can source. Empty means none.
	Available []string `json:"available"`
	// Prices maps ingredient to the price of one 50kg bag. Nil means prices were not supplied.
	Prices       map[string]float64 `json:"prices,omitempty"`
	MaturityDays int                `json:"maturity_days,omitempty"`
	Currency     string             `json:"currency,omitempty"`
}

// FeedPlan is the derived output for one request. It is never mutated once built.
type FeedPlan struct {
	Category     string `json:"category"`
	Bracket      string `json:"bracket"`
	FlockSize    int    `json:"flock_size"`
	MaturityDays int    `json:"maturity_days"`

	// Ingredients lists the required ingredients in catalog order.
	Ingredients []string `json:"ingredients"`
	// Omitted lists the recipe ingredients that were not available, in catalog order.
	Omitted            []string            `json:"omitted"`
	RequiredGrams      map[string]float64  `json:"required_grams"`
	OmittedIngredients map[string][]string `json:"omitted_ingredients"`
	MixPercentages     map[string]float64  `json:"mix_percentages"`
	// BagDurationDays has no entry for ingredients with zero consumption.
	BagDurationDays   map[string]float64 `json:"bag_duration_days"`
	TotalToMaturityKg map[string]float64 `json:"total_to_maturity_kg"`

	// Costs is nil when no prices were supplied.
	Costs *CostBreakdown `json:"costs,omitempty"`
}

// CostBreakdown holds the money side of a plan.
type CostBreakdown struct {
	Currency      string                     `json:"currency"`
	PerIngredient map[string]decimal.Decimal `json:"per_ingredient"`
	Daily         decimal.Decimal            `json:"daily"`
	// Unpriced lists required ingredients whose price was missing or not positive.
	Unpriced []string `json:"unpriced,omitempty"`
}

// TotalGrams is the daily feed mass across every required ingredient.
func (p FeedPlan) TotalGrams() float64 {
	var total float64
	for _, name := range p.Ingredients {
		total += p.RequiredGrams[name]
	}
	return total
}

// TotalToMaturity is the feed mass in kilograms needed until maturity.
func (p FeedPlan) TotalToMaturity() float64 {
	var total float64
	for _, name := range p.Ingredients {
		total += p.TotalToMaturityKg[name]
	}
	return total
}

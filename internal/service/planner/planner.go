package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

var (
	ErrUnknownCategory     = errors.New("unknown category")
	ErrUnknownBracket      = errors.New("unknown age bracket")
	ErrInvalidFlockSize    = errors.New("flock size must be a positive number")
	ErrInvalidMaturityDays = errors.New("maturity days must be a positive number")
	ErrUnknownCurrency     = errors.New("unknown currency code")

	// ErrEmptyRecipeAfterFiltering is returned together with a populated plan when
	// none of the recipe ingredients are available.
	ErrEmptyRecipeAfterFiltering = errors.New("none of the recipe ingredients are available")
)

var (
	gramsPerKg = decimal.NewFromInt(1000)
	bagKg      = decimal.NewFromInt(models.BagWeightKg)
)

// Service derives feed plans from the catalog. It holds no mutable state.
type Service struct {
	catalog         *catalog.Catalog
	defaultCurrency string
	logger          *zap.Logger
}

// NewService wires a planner over a loaded catalog.
func NewService(cat *catalog.Catalog, defaultCurrency string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:         cat,
		defaultCurrency: strings.ToUpper(strings.TrimSpace(defaultCurrency)),
		logger:          logger,
	}
}

// Catalog exposes the read-only tables the planner works from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// DerivePlan scales the recipe for the requested category and bracket to the flock,
// splits it by ingredient availability and derives costs, mix, bag duration and
// maturity totals.
//
// When no recipe ingredient is available the returned plan is still fully
// populated (every ingredient omitted, with substitutes) and the error wraps
// ErrEmptyRecipeAfterFiltering.
func (s *Service) DerivePlan(req models.PlanRequest) (models.FeedPlan, error) {
	cat, ok := s.catalog.Category(req.Category)
	if !ok {
		return models.FeedPlan{}, fmt.Errorf("%w: %q", ErrUnknownCategory, req.Category)
	}

	bracket, ok := cat.Bracket(req.Bracket)
	if !ok {
		return models.FeedPlan{}, fmt.Errorf("%w: %q is not a bracket of %s", ErrUnknownBracket, req.Bracket, cat.Name())
	}

	if req.FlockSize <= 0 {
		return models.FeedPlan{}, fmt.Errorf("%w, got %d", ErrInvalidFlockSize, req.FlockSize)
	}

	maturityDays := req.MaturityDays
	switch {
	case maturityDays < 0:
		return models.FeedPlan{}, fmt.Errorf("%w, got %d", ErrInvalidMaturityDays, maturityDays)
	case maturityDays == 0:
		maturityDays = cat.MaturityDays()
	case maturityDays > s.catalog.MaxMaturityDays():
		return models.FeedPlan{}, fmt.Errorf("%w, got %d (at most %d)", ErrInvalidMaturityDays, maturityDays, s.catalog.MaxMaturityDays())
	}

	code, err := s.resolveCurrency(req.Currency)
	if err != nil {
		return models.FeedPlan{}, err
	}

	available := make(map[string]struct{}, len(req.Available))
	for _, name := range req.Available {
		available[catalog.NormalizeIngredient(name)] = struct{}{}
	}

	recipe := bracket.Ingredients()
	plan := models.FeedPlan{
		Category:           cat.Name(),
		Bracket:            bracket.Label(),
		FlockSize:          req.FlockSize,
		MaturityDays:       maturityDays,
		Ingredients:        make([]string, 0, len(recipe)),
		Omitted:            make([]string, 0),
		RequiredGrams:      make(map[string]float64, len(recipe)),
		OmittedIngredients: make(map[string][]string),
		MixPercentages:     make(map[string]float64, len(recipe)),
		BagDurationDays:    make(map[string]float64, len(recipe)),
		TotalToMaturityKg:  make(map[string]float64, len(recipe)),
	}

	flock := float64(req.FlockSize)
	var total float64
	for _, name := range recipe {
		if _, ok := available[name]; !ok {
			plan.Omitted = append(plan.Omitted, name)
			plan.OmittedIngredients[name] = s.catalog.Alternatives(name)
			continue
		}

		perBird, _ := bracket.Grams(name)
		grams := perBird * flock
		plan.Ingredients = append(plan.Ingredients, name)
		plan.RequiredGrams[name] = grams
		plan.TotalToMaturityKg[name] = grams * float64(maturityDays) / 1000
		if grams > 0 {
			plan.BagDurationDays[name] = models.BagWeightKg / (grams / 1000)
		}
		total += grams
	}

	if total > 0 {
		for _, name := range plan.Ingredients {
			plan.MixPercentages[name] = plan.RequiredGrams[name] / total * 100
		}
	}

	if req.Prices != nil {
		plan.Costs = priceIngredients(plan, req.Prices, code)
	}

	s.logger.Debug("feed plan derived",
		zap.String("category", plan.Category),
		zap.String("bracket", plan.Bracket),
		zap.Int("flock_size", plan.FlockSize),
		zap.Int("required", len(plan.Ingredients)),
		zap.Int("omitted", len(plan.Omitted)))

	if len(plan.Ingredients) == 0 {
		return plan, fmt.Errorf("%w for %s %s", ErrEmptyRecipeAfterFiltering, plan.Category, plan.Bracket)
	}

	return plan, nil
}

func (s *Service) resolveCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = s.defaultCurrency
	}
	if code == "" {
		return "", nil
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return unit.String(), nil
}

// CostOf converts a daily consumption in grams to its cost given the price of a 50kg bag.
// The result is not rounded; formatters round for display.
func CostOf(grams, bagPrice float64) decimal.Decimal {
	return decimal.NewFromFloat(grams).
		Div(gramsPerKg).
		Div(bagKg).
		Mul(decimal.NewFromFloat(bagPrice))
}

func priceIngredients(plan models.FeedPlan, prices map[string]float64, code string) *models.CostBreakdown {
	normalized := make(map[string]float64, len(prices))
	for name, price := range prices {
		normalized[catalog.NormalizeIngredient(name)] = price
	}

	costs := &models.CostBreakdown{
		Currency:      code,
		PerIngredient: make(map[string]decimal.Decimal, len(plan.Ingredients)),
		Daily:         decimal.Zero,
	}

	for _, name := range plan.Ingredients {
		price, ok := normalized[name]
		if !ok || price <= 0 {
			costs.Unpriced = append(costs.Unpriced, name)
			continue
		}
		cost := CostOf(plan.RequiredGrams[name], price)
		costs.PerIngredient[name] = cost
		costs.Daily = costs.Daily.Add(cost)
	}

	return costs
}

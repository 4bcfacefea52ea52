package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	repo "github.com/mamadbah2/feedplanner/internal/repository/sheets"
)

// ErrInvalidPriceList indicates a name=price list could not be parsed.
var ErrInvalidPriceList = errors.New("invalid price list")

// Source supplies current bag prices keyed by ingredient name.
type Source interface {
	Prices(ctx context.Context) (map[string]float64, error)
}

// SheetSource reads a two column table (ingredient, price per 50kg bag) from a spreadsheet.
type SheetSource struct {
	repo      repo.Repository
	readRange string
	logger    *zap.Logger
}

// NewSheetSource wires a spreadsheet backed price source.
func NewSheetSource(repository repo.Repository, readRange string, logger *zap.Logger) *SheetSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetSource{
		repo:      repository,
		readRange: readRange,
		logger:    logger,
	}
}

// Prices returns the priced ingredients found in the sheet. Rows whose price cell is
// not a number, such as a header row, are skipped. A later row overrides an earlier one.
func (s *SheetSource) Prices(ctx context.Context) (map[string]float64, error) {
	rows, err := s.repo.ReadRange(ctx, s.readRange)
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}

	prices := make(map[string]float64, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}

		name := catalog.NormalizeIngredient(fmt.Sprint(row[0]))
		if name == "" {
			continue
		}

		price, err := parseFloat(row[1])
		if err != nil {
			s.logger.Debug("skipping price row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		prices[name] = price
	}

	s.logger.Debug("prices loaded", zap.Int("count", len(prices)))
	return prices, nil
}

// ParseList parses "corn=100,soybean=90" into a price map. Names are normalized.
func ParseList(value string) (map[string]float64, error) {
	prices := make(map[string]float64)
	if strings.TrimSpace(value) == "" {
		return prices, nil
	}

	for _, pair := range strings.Split(value, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q has no '='", ErrInvalidPriceList, pair)
		}

		name = catalog.NormalizeIngredient(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty ingredient in %q", ErrInvalidPriceList, pair)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: price for %s: %w", ErrInvalidPriceList, name, err)
		}
		prices[name] = price
	}

	return prices, nil
}

// parseFloat accepts sheet cells with thousands separators such as "1,250.50".
func parseFloat(value interface{}) (float64, error) {
	str := strings.ReplaceAll(strings.TrimSpace(fmt.Sprint(value)), ",", "")
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}

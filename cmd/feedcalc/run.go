package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/domain/models"
	"github.com/mamadbah2/feedplanner/internal/service/planner"
	"github.com/mamadbah2/feedplanner/internal/service/pricing"
	"github.com/mamadbah2/feedplanner/internal/service/reporting"
	"github.com/mamadbah2/feedplanner/pkg/logger"
)

// Config holds the parsed command line.
type Config struct {
	CatalogPath string
	Category    string
	Bracket     string
	FlockSize   int
	Available   string
	Prices      string
	Days        int
	Currency    string
	Format      string
	Output      string
	FarmName    string
	List        bool
	Verbose     bool
}

// Run computes one plan, or lists the catalog, and writes the result to stdout or
// cfg.Output. When no ingredient is available the report is still written and the
// error is returned afterwards.
func Run(cfg Config, stdout io.Writer) error {
	level := "warn"
	if cfg.Verbose {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	if cfg.List {
		return writeCatalog(stdout, cat)
	}

	format, err := reporting.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	req, err := buildRequest(cfg, cat)
	if err != nil {
		return err
	}

	plannerSvc := planner.NewService(cat, cfg.Currency, log.Named("svc.planner"))
	plan, planErr := plannerSvc.DerivePlan(req)
	if planErr != nil && !errors.Is(planErr, planner.ErrEmptyRecipeAfterFiltering) {
		return planErr
	}

	reports := reporting.NewService(cfg.FarmName, log.Named("svc.reporting"))
	var buf bytes.Buffer
	if err := reports.Export(&buf, format, plan); err != nil {
		return err
	}

	if cfg.Output == "" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return err
		}
		return planErr
	}

	if err := writeFile(cfg.Output, buf.Bytes()); err != nil {
		return err
	}
	log.Info("report written", zap.String("path", cfg.Output), zap.String("format", string(format)))
	return planErr
}

func writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func buildRequest(cfg Config, cat *catalog.Catalog) (models.PlanRequest, error) {
	if cfg.Category == "" || cfg.Bracket == "" {
		return models.PlanRequest{}, errors.New("-category and -bracket are required (see -list)")
	}

	category, ok := cat.Category(cfg.Category)
	if !ok {
		return models.PlanRequest{}, fmt.Errorf("%w: %q", planner.ErrUnknownCategory, cfg.Category)
	}
	bracket, ok := category.ResolveBracket(cfg.Bracket)
	if !ok {
		return models.PlanRequest{}, fmt.Errorf("%w: %q", planner.ErrUnknownBracket, cfg.Bracket)
	}

	if cfg.Days > cat.MaxMaturityDays() {
		return models.PlanRequest{}, fmt.Errorf("%w: -days %d exceeds the limit of %d", planner.ErrInvalidMaturityDays, cfg.Days, cat.MaxMaturityDays())
	}

	req := models.PlanRequest{
		Category:     category.Name(),
		Bracket:      bracket.Label(),
		FlockSize:    cfg.FlockSize,
		MaturityDays: cfg.Days,
		Currency:     cfg.Currency,
		Available:    []string{},
	}

	switch strings.TrimSpace(strings.ToLower(cfg.Available)) {
	case "all":
		req.Available = cat.Ingredients()
	case "":
	default:
		for _, name := range strings.Split(cfg.Available, ",") {
			if name = catalog.NormalizeIngredient(name); name != "" {
				req.Available = append(req.Available, name)
			}
		}
	}

	if cfg.Prices != "" {
		prices, err := pricing.ParseList(cfg.Prices)
		if err != nil {
			return models.PlanRequest{}, err
		}
		req.Prices = prices
	}

	return req, nil
}

func writeCatalog(w io.Writer, cat *catalog.Catalog) error {
	var b strings.Builder
	for _, category := range cat.Categories() {
		fmt.Fprintf(&b, "%s (%d days to maturity)\n", category.Name(), category.MaturityDays())
		for i, bracket := range category.Brackets() {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, bracket.Label())
		}
	}
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(cat.Ingredients(), ", "))

	_, err := io.WriteString(w, b.String())
	return err
}

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog wraps every validation failure reported while loading a catalog.
var ErrInvalidCatalog = errors.New("invalid feed catalog")

//go:embed default_catalog.yaml
var defaultCatalog []byte

// File mirrors the YAML document.
type File struct {
	Version             string              `yaml:"version"`
	DefaultMaturityDays int                 `yaml:"default_maturity_days"`
	MaxMaturityDays     int                 `yaml:"max_maturity_days"`
	Ingredients         []string            `yaml:"ingredients"`
	Alternatives        map[string][]string `yaml:"alternatives"`
	Categories          []CategoryFile      `yaml:"categories"`
}

type CategoryFile struct {
	Name         string        `yaml:"name"`
	MaturityDays int           `yaml:"maturity_days,omitempty"`
	Brackets     []BracketFile `yaml:"brackets"`
}

type BracketFile struct {
	Label  string             `yaml:"label"`
	Recipe map[string]float64 `yaml:"recipe"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile loads and validates a YAML catalog from the given path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data and builds a validated Catalog.
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	return Build(f)
}

func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}
	if f.DefaultMaturityDays == 0 {
		f.DefaultMaturityDays = 140
	}
	if f.MaxMaturityDays == 0 {
		f.MaxMaturityDays = 730
	}
}

// Build validates f and turns it into a Catalog. All problems are reported together.
func Build(f File) (*Catalog, error) {
	applyDefaults(&f)

	var problems []error
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	c := &Catalog{
		version:             f.Version,
		defaultMaturityDays: f.DefaultMaturityDays,
		maxMaturityDays:     f.MaxMaturityDays,
		order:               make(map[string]int),
		alternatives:        make(map[string][]string),
		byName:              make(map[string]*Category),
	}

	if f.DefaultMaturityDays < 0 {
		report("default_maturity_days must be positive, got %d", f.DefaultMaturityDays)
	}
	if f.MaxMaturityDays < 0 {
		report("max_maturity_days must be positive, got %d", f.MaxMaturityDays)
	} else if f.DefaultMaturityDays > f.MaxMaturityDays {
		report("default_maturity_days %d exceeds max_maturity_days %d", f.DefaultMaturityDays, f.MaxMaturityDays)
	}

	if len(f.Ingredients) == 0 {
		report("ingredient vocabulary is empty")
	}
	for _, raw := range f.Ingredients {
		name := NormalizeIngredient(raw)
		if name == "" {
			report("blank ingredient name in vocabulary")
			continue
		}
		if _, dup := c.order[name]; dup {
			report("duplicate ingredient %q", name)
			continue
		}
		c.order[name] = len(c.ingredients)
		c.ingredients = append(c.ingredients, name)
	}

	for rawKey, rawAlts := range f.Alternatives {
		key := NormalizeIngredient(rawKey)
		if _, ok := c.order[key]; !ok {
			report("alternatives for unknown ingredient %q", rawKey)
			continue
		}
		alts := make([]string, 0, len(rawAlts))
		for _, rawAlt := range rawAlts {
			alt := NormalizeIngredient(rawAlt)
			switch {
			case alt == key:
				report("ingredient %q lists itself as an alternative", key)
			case !c.HasIngredient(alt):
				report("alternative %q for %q is not in the vocabulary", rawAlt, key)
			default:
				alts = append(alts, alt)
			}
		}
		c.alternatives[key] = alts
	}

	if len(f.Categories) == 0 {
		report("no categories defined")
	}
	for _, cf := range f.Categories {
		cat, errs := c.buildCategory(cf)
		problems = append(problems, errs...)
		if cat == nil {
			continue
		}
		key := NormalizeIngredient(cat.name)
		if _, dup := c.byName[key]; dup {
			report("duplicate category %q", cat.name)
			continue
		}
		c.byName[key] = cat
		c.categories = append(c.categories, cat)
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(problems...))
	}
	return c, nil
}

func (c *Catalog) buildCategory(cf CategoryFile) (*Category, []error) {
	var problems []error
	if NormalizeIngredient(cf.Name) == "" {
		return nil, []error{errors.New("category with blank name")}
	}

	cat := &Category{
		name:         cf.Name,
		maturityDays: cf.MaturityDays,
		byLabel:      make(map[string]*Bracket),
	}
	if cat.maturityDays == 0 {
		cat.maturityDays = c.defaultMaturityDays
	}
	switch {
	case cat.maturityDays < 0:
		problems = append(problems, fmt.Errorf("category %q: maturity_days must be positive, got %d", cf.Name, cf.MaturityDays))
	case c.maxMaturityDays > 0 && cat.maturityDays > c.maxMaturityDays:
		problems = append(problems, fmt.Errorf("category %q: maturity_days %d exceeds max_maturity_days %d", cf.Name, cat.maturityDays, c.maxMaturityDays))
	}
	if len(cf.Brackets) == 0 {
		problems = append(problems, fmt.Errorf("category %q has no brackets", cf.Name))
	}

	var firstSet []string
	for _, bf := range cf.Brackets {
		b, errs := c.buildBracket(cf.Name, bf)
		problems = append(problems, errs...)
		if b == nil {
			continue
		}

		key := NormalizeIngredient(b.label)
		if _, dup := cat.byLabel[key]; dup {
			problems = append(problems, fmt.Errorf("category %q: duplicate bracket %q", cf.Name, b.label))
			continue
		}

		if firstSet == nil {
			firstSet = b.ingredients
		} else if !slices.Equal(firstSet, b.ingredients) {
			problems = append(problems, fmt.Errorf("category %q: bracket %q uses ingredients %v, expected %v", cf.Name, b.label, b.ingredients, firstSet))
		}

		cat.byLabel[key] = b
		cat.brackets = append(cat.brackets, b)
	}

	return cat, problems
}

func (c *Catalog) buildBracket(category string, bf BracketFile) (*Bracket, []error) {
	var problems []error
	if NormalizeIngredient(bf.Label) == "" {
		return nil, []error{fmt.Errorf("category %q: bracket with blank label", category)}
	}
	if len(bf.Recipe) == 0 {
		return nil, []error{fmt.Errorf("category %q bracket %q: recipe is empty", category, bf.Label)}
	}

	b := &Bracket{label: bf.Label, grams: make(map[string]float64, len(bf.Recipe))}
	for raw, grams := range bf.Recipe {
		name := NormalizeIngredient(raw)
		if _, ok := c.order[name]; !ok {
			problems = append(problems, fmt.Errorf("category %q bracket %q: unknown ingredient %q", category, bf.Label, raw))
			continue
		}
		if grams < 0 {
			problems = append(problems, fmt.Errorf("category %q bracket %q: negative grams for %q", category, bf.Label, name))
			continue
		}
		if _, dup := b.grams[name]; dup {
			problems = append(problems, fmt.Errorf("category %q bracket %q: ingredient %q listed twice", category, bf.Label, name))
			continue
		}
		b.grams[name] = grams
		b.ingredients = append(b.ingredients, name)
	}

	sort.Slice(b.ingredients, func(i, j int) bool {
		return c.order[b.ingredients[i]] < c.order[b.ingredients[j]]
	})

	return b, problems
}

package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	var (
		catalogPath = flag.String("catalog", "", "Path to a feed catalog YAML file (defaults to the built-in catalog)")
		category    = flag.String("category", "", "Bird category, e.g. Broilers")
		bracket     = flag.String("bracket", "", "Age bracket label, number or unique prefix")
		flock       = flag.Int("flock", 0, "Number of birds")
		available   = flag.String("available", "all", `Comma separated ingredients on hand, "all" for the whole catalog`)
		prices      = flag.String("prices", "", "Bag prices per 50kg, e.g. corn=100,soybean=90")
		days        = flag.Int("days", 0, "Days to maturity (defaults to the category setting)")
		currency    = flag.String("currency", "USD", "ISO 4217 currency of the prices")
		format      = flag.String("format", "text", "Output format: text, json, csv, xlsx, pdf, png")
		output      = flag.String("output", "", "Write the result to this file instead of stdout")
		farm        = flag.String("farm", "", "Farm name used in report titles")
		list        = flag.Bool("list", false, "List categories, brackets and ingredients")
		verbose     = flag.Bool("verbose", false, "Enable debug logging on stderr")
	)

	flag.Parse()

	cfg := Config{
		CatalogPath: *catalogPath,
		Category:    *category,
		Bracket:     *bracket,
		FlockSize:   *flock,
		Available:   *available,
		Prices:      *prices,
		Days:        *days,
		Currency:    *currency,
		Format:      *format,
		Output:      *output,
		FarmName:    *farm,
		List:        *list,
		Verbose:     *verbose,
	}

	if err := Run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

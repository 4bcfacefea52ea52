package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

const rule = "────────────────────────────────────────────────────────────────\n"

// RenderText writes the full human-readable listing of a plan.
func (s *Service) RenderText(w io.Writer, plan models.FeedPlan) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s - Feed Plan\n", s.farmName)
	b.WriteString(rule)
	fmt.Fprintf(&b, "Category: %s\n", plan.Category)
	fmt.Fprintf(&b, "Age group: %s\n", plan.Bracket)
	fmt.Fprintf(&b, "Flock size: %d birds\n", plan.FlockSize)
	fmt.Fprintf(&b, "Days to maturity: %d\n\n", plan.MaturityDays)

	if len(plan.Ingredients) > 0 {
		b.WriteString("FEED REQUIREMENT\n")
		b.WriteString(rule)
		fmt.Fprintf(&b, "%-18s %12s %8s %12s %12s %14s\n", "Ingredient", "Grams/day", "Mix %", "Cost/day", "Bag lasts", "To maturity")
		for _, name := range plan.Ingredients {
			fmt.Fprintf(&b, "%-18s %12.1f %8.1f %12s %12s %11.2f kg\n",
				name,
				plan.RequiredGrams[name],
				plan.MixPercentages[name],
				costCell(plan, name),
				bagCell(plan, name),
				plan.TotalToMaturityKg[name])
		}
		b.WriteString(rule)
		fmt.Fprintf(&b, "%-18s %12.1f %8s %12s %12s %11.2f kg\n\n",
			"Total", plan.TotalGrams(), "", dailyCostCell(plan), "", plan.TotalToMaturity())
	} else {
		b.WriteString("No recipe ingredient is available.\n\n")
	}

	if plan.Costs != nil && len(plan.Costs.Unpriced) > 0 {
		fmt.Fprintf(&b, "No price given for: %s\n\n", strings.Join(plan.Costs.Unpriced, ", "))
	}

	if len(plan.Omitted) > 0 {
		b.WriteString("MISSING INGREDIENTS\n")
		b.WriteString(rule)
		for _, name := range plan.Omitted {
			fmt.Fprintf(&b, "%-18s %s\n", name, suggestion(plan.OmittedIngredients[name]))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Summary is the short chat-sized description of a plan.
func (s *Service) Summary(plan models.FeedPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Feed plan: %s, %s, %d birds\n", plan.Category, plan.Bracket, plan.FlockSize)
	if len(plan.Ingredients) == 0 {
		b.WriteString("None of the recipe ingredients are available.\n")
	} else {
		b.WriteString("Daily ration:\n")
		for _, name := range plan.Ingredients {
			fmt.Fprintf(&b, "- %s: %.1fg (%.1f%%)\n", name, plan.RequiredGrams[name], plan.MixPercentages[name])
		}
		fmt.Fprintf(&b, "Total %.2f kg/day, %.2f kg over %d days.\n", plan.TotalGrams()/1000, plan.TotalToMaturity(), plan.MaturityDays)
	}

	if plan.Costs != nil && !plan.Costs.Daily.IsZero() {
		fmt.Fprintf(&b, "Daily cost: %s %s\n", plan.Costs.Daily.StringFixed(2), plan.Costs.Currency)
	}

	for _, name := range plan.Omitted {
		fmt.Fprintf(&b, "Missing %s: %s\n", name, suggestion(plan.OmittedIngredients[name]))
	}

	return strings.TrimRight(b.String(), "\n")
}

// WriteJSON writes the plan as indented JSON.
func WriteJSON(w io.Writer, plan models.FeedPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

func suggestion(alternatives []string) string {
	if len(alternatives) == 0 {
		return "no substitute on record"
	}
	return "try " + strings.Join(alternatives, ", ")
}

func costCell(plan models.FeedPlan, name string) string {
	if plan.Costs == nil {
		return "-"
	}
	cost, ok := plan.Costs.PerIngredient[name]
	if !ok {
		return "n/a"
	}
	return cost.StringFixed(2)
}

func dailyCostCell(plan models.FeedPlan) string {
	if plan.Costs == nil {
		return "-"
	}
	return strings.TrimSpace(plan.Costs.Daily.StringFixed(2) + " " + plan.Costs.Currency)
}

func bagCell(plan models.FeedPlan, name string) string {
	days, ok := plan.BagDurationDays[name]
	if !ok {
		return "never"
	}
	return fmt.Sprintf("%.1f days", days)
}

package reporting

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

const (
	pdfMargin     = 40.0
	pdfLineHeight = 20.0
	pdfPageBottom = 750.0
)

// WritePDF writes the one-page recipe report: the title, then one line per
// ingredient with its daily grams.
func (s *Service) WritePDF(w io.Writer, plan models.FeedPlan) error {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(s.farmName+" - Feed Recipe Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(pdfMargin, 42, s.farmName+" - Feed Recipe Report")

	pdf.SetFont("Helvetica", "", 12)
	y := 72.0
	line := func(text string) {
		if y > pdfPageBottom {
			pdf.AddPage()
			y = 42
		}
		pdf.Text(pdfMargin, y, text)
		y += pdfLineHeight
	}

	line(fmt.Sprintf("%s, %s, %d birds", plan.Category, plan.Bracket, plan.FlockSize))
	y += pdfLineHeight / 2

	for _, name := range plan.Ingredients {
		line(fmt.Sprintf("%s: %.1f grams", titleCase(name), plan.RequiredGrams[name]))
	}

	if plan.Costs != nil {
		y += pdfLineHeight / 2
		line(fmt.Sprintf("Estimated daily cost: %s %s", plan.Costs.Daily.StringFixed(2), plan.Costs.Currency))
	}

	if len(plan.Omitted) > 0 {
		y += pdfLineHeight / 2
		for _, name := range plan.Omitted {
			line(fmt.Sprintf("Missing %s: %s", titleCase(name), suggestion(plan.OmittedIngredients[name])))
		}
	}

	return pdf.Output(w)
}

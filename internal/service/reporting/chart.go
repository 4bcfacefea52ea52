package reporting

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

// RenderPieChart draws the feed composition as a PNG pie chart.
func RenderPieChart(w io.Writer, plan models.FeedPlan) error {
	slices := PieSlices(plan)
	if len(slices) == 0 {
		return ErrNothingToChart
	}

	values := make([]chart.Value, 0, len(slices))
	for _, slice := range slices {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", slice.Ingredient, slice.Percentage),
			Value: slice.Percentage,
		})
	}

	pie := chart.PieChart{
		Title:  "Feed Composition",
		Width:  640,
		Height: 640,
		Values: values,
	}

	return pie.Render(chart.PNG, w)
}

package reporting

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

var (
	// ErrUnsupportedFormat indicates the requested export format is unknown.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrNothingToChart is returned when a plan has no positive mix percentage.
	ErrNothingToChart = errors.New("plan has no ingredients to chart")
)

// DefaultFarmName brands report titles when none is configured.
const DefaultFarmName = "Rosashi Farms"

// Format names an export artifact.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatPNG   Format = "png"
)

var formatInfo = map[Format]struct {
	contentType string
	extension   string
}{
	FormatText:  {"text/plain; charset=utf-8", "txt"},
	FormatJSON:  {"application/json", "json"},
	FormatCSV:   {"text/csv", "csv"},
	FormatExcel: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	FormatPDF:   {"application/pdf", "pdf"},
	FormatPNG:   {"image/png", "png"},
}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "", "txt":
		return FormatText, nil
	case "excel", "xls":
		return FormatExcel, nil
	case "chart":
		return FormatPNG, nil
	default:
		if _, ok := formatInfo[f]; ok {
			return f, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, value)
	}
}

// ContentType is the MIME type of the artifact.
func (f Format) ContentType() string { return formatInfo[f].contentType }

// Extension is the file extension of the artifact, without the dot.
func (f Format) Extension() string { return formatInfo[f].extension }

// Service renders feed plans into reports and export artifacts. It is stateless.
type Service struct {
	farmName string
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(farmName string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(farmName) == "" {
		farmName = DefaultFarmName
	}
	return &Service{
		farmName: farmName,
		logger:   logger,
	}
}

// titleCase capitalizes ingredient names for printed reports. Casers keep state,
// so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FileName suggests a download name for an artifact, e.g. rosashi_farms_feed_plan.xlsx.
func (s *Service) FileName(f Format) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s.farmName), "_"), "_")
	if slug == "" {
		return "feed_plan." + f.Extension()
	}
	return slug + "_feed_plan." + f.Extension()
}

// Export writes the plan in the requested format.
func (s *Service) Export(w io.Writer, f Format, plan models.FeedPlan) error {
	var err error
	switch f {
	case FormatText:
		err = s.RenderText(w, plan)
	case FormatJSON:
		err = WriteJSON(w, plan)
	case FormatCSV:
		err = WriteScheduleCSV(w, BuildSchedule(plan))
	case FormatExcel:
		err = WriteScheduleExcel(w, BuildSchedule(plan))
	case FormatPDF:
		err = s.WritePDF(w, plan)
	case FormatPNG:
		err = RenderPieChart(w, plan)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}

	s.logger.Debug("plan exported",
		zap.String("format", string(f)),
		zap.String("category", plan.Category),
		zap.String("bracket", plan.Bracket))
	return nil
}

// BuildSchedule expands a plan into one row per day up to maturity. Consumption is
// modelled as constant, so every row repeats the daily required grams.
func BuildSchedule(plan models.FeedPlan) models.Schedule {
	columns := append([]string(nil), plan.Ingredients...)
	daily := make([]float64, len(columns))
	for i, name := range columns {
		daily[i] = plan.RequiredGrams[name]
	}

	rows := make([]models.ScheduleRow, 0, plan.MaturityDays)
	for day := 1; day <= plan.MaturityDays; day++ {
		rows = append(rows, models.ScheduleRow{
			Day:   day,
			Grams: append([]float64(nil), daily...),
		})
	}

	return models.Schedule{Columns: columns, Rows: rows}
}

// Slice is one pie chart wedge.
type Slice struct {
	Ingredient string
	Percentage float64
}

// PieSlices returns the positive mix percentages in plan order.
func PieSlices(plan models.FeedPlan) []Slice {
	slices := make([]Slice, 0, len(plan.Ingredients))
	for _, name := range plan.Ingredients {
		if pct := plan.MixPercentages[name]; pct > 0 {
			slices = append(slices, Slice{Ingredient: name, Percentage: pct})
		}
	}
	return slices
}

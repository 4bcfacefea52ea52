package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

// ScheduleHeader is the header row shared by the CSV, Excel and sheet exports.
func ScheduleHeader(schedule models.Schedule) []string {
	return append([]string{"day"}, schedule.Columns...)
}

// WriteScheduleCSV writes one line per day with the grams of every ingredient.
func WriteScheduleCSV(w io.Writer, schedule models.Schedule) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ScheduleHeader(schedule)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(schedule.Columns)+1)
	for _, row := range schedule.Rows {
		record[0] = strconv.Itoa(row.Day)
		for i, grams := range row.Grams {
			record[i+1] = strconv.FormatFloat(grams, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv day %d: %w", row.Day, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

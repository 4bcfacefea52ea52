package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/feedplanner/internal/domain/models"
)

const scheduleSheet = "Schedule"

// WriteScheduleExcel writes the schedule as an xlsx workbook with a single sheet.
func WriteScheduleExcel(w io.Writer, schedule models.Schedule) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(schedule.Columns)+1)
	for _, title := range ScheduleHeader(schedule) {
		header = append(header, title)
	}
	if err := f.SetSheetRow(scheduleSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range schedule.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, 0, len(row.Grams)+1)
		values = append(values, row.Day)
		for _, grams := range row.Grams {
			values = append(values, grams)
		}
		if err := f.SetSheetRow(scheduleSheet, cell, &values); err != nil {
			return fmt.Errorf("write day %d: %w", row.Day, err)
		}
	}

	return f.Write(w)
}

package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Schedule"

// ExportDay writes the day view as an xlsx workbook with one row per hour and
// one column per room
func ExportDay(view *DayView, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []any{view.Date.Format("Mon 2 Jan 2006")}
	for _, room := range view.Rooms {
		headers = append(headers, fmt.Sprintf("Room %d", room))
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}

	if !view.Open {
		if err := f.SetCellValue(exportSheetName, "A2", "Closed"); err != nil {
			return fmt.Errorf("failed to write closed marker: %w", err)
		}
	}

	for r, row := range view.Rows {
		if err := setCellValue(f, 1, r+2, row.Slot.Format("15:04")); err != nil {
			return fmt.Errorf("failed to write slot of row %d: %w", r+2, err)
		}
		for c, cell := range row.Cells {
			if !cell.Filled() {
				continue
			}
			if err := setCellValue(f, c+2, r+2, cellText(cell)); err != nil {
				return fmt.Errorf("failed to write row %d, col %d: %w", r+2, c+2, err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetColWidth(exportSheetName, "B", lastCol, 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SetPanes(exportSheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCellValue(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(exportSheetName, cell, value)
}

func cellText(cell DayCell) string {
	if cell.PatientName != "" {
		return fmt.Sprintf("%s (%s)", cell.CaregiverName, cell.PatientName)
	}
	return cell.CaregiverName
}

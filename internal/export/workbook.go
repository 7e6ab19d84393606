package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetName is the title of the single worksheet.
const SheetName = "Estimativas de Horas"

const accentColor = "EA580C"

// columnWidths are in characters, one per entry of Columns.
var columnWidths = [len(Columns)]float64{6, 16, 35, 18, 18, 25, 12, 14}

// writeWorkbook serialises rep into an .xlsx document.
func writeWorkbook(rep Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{accentColor}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return nil, err
	}

	for i, row := range rep.Rows {
		excelRow := i + 1
		for j, v := range row.Cells {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, excelRow)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", cell, err)
			}
		}

		switch row.Kind {
		case RowTitle:
			start := fmt.Sprintf("A%d", excelRow)
			end := fmt.Sprintf("%s%d", lastCol, excelRow)
			if err := f.MergeCell(SheetName, start, end); err != nil {
				return nil, fmt.Errorf("merge title: %w", err)
			}
		case RowTableHeader:
			start := fmt.Sprintf("A%d", excelRow)
			end := fmt.Sprintf("%s%d", lastCol, excelRow)
			if err := f.SetCellStyle(SheetName, start, end, headerStyle); err != nil {
				return nil, fmt.Errorf("style table header: %w", err)
			}
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("width of column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

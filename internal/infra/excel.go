package infra

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteExcel renders a header row plus data rows into an xlsx workbook and
// streams it to w. Used by the report export endpoints.
func WriteExcel(w io.Writer, sheetName string, headers []string, data [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("excel: create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("excel: create header style: %w", err)
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel: write workbook: %w", err)
	}
	return nil
}

package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders Dataset records into an xlsx workbook.
type ExcelExporter struct{}

// NewExcelExporter builds an Excel exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Render produces a workbook with the dataset on a named sheet. When meta
// key/value pairs are provided they are written to a separate Summary sheet.
func (e *ExcelExporter) Render(data Dataset, sheetName string, meta [][2]string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	if sheetName == "" {
		sheetName = "Data"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, header := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header %s: %w", header, err)
		}
	}
	lastCol, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol, headerStyle); err != nil {
		return nil, fmt.Errorf("style headers: %w", err)
	}

	for rowIdx, row := range data.Rows {
		for colIdx, header := range data.Headers {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("data cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, row[header]); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+1, err)
			}
		}
	}

	if len(meta) > 0 {
		const summarySheet = "Summary"
		if _, err := f.NewSheet(summarySheet); err != nil {
			return nil, fmt.Errorf("create summary sheet: %w", err)
		}
		for i, pair := range meta {
			keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
			valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
			if err := f.SetCellValue(summarySheet, keyCell, pair[0]); err != nil {
				return nil, fmt.Errorf("write summary key: %w", err)
			}
			if err := f.SetCellValue(summarySheet, valueCell, pair[1]); err != nil {
				return nil, fmt.Errorf("write summary value: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet      = "Students"
	maxSheetNameRunes = 31
)

var sheetNameCleaner = strings.NewReplacer(":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// ExcelExporter renders datasets into xlsx workbooks.
type ExcelExporter struct{}

// NewExcelExporter constructs an Excel exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Render writes a single sheet workbook.
func (e *ExcelExporter) Render(data Dataset, sheet string) ([]byte, error) {
	return e.RenderSections([]Section{{Title: sheet, Data: data}}, DocumentOptions{})
}

// RenderSections writes one sheet per section when NewPagePerSection is set,
// otherwise every section is appended to a single sheet.
func (e *ExcelExporter) RenderSections(sections []Section, opts DocumentOptions) ([]byte, error) {
	if len(sections) == 0 {
		sections = []Section{{}}
	}
	if len(sections[0].Data.Headers) == 0 {
		return nil, fmt.Errorf("excel requires at least one header")
	}

	f := excelize.NewFile()
	defer f.Close()

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if !opts.NewPagePerSection {
		sections = []Section{{Title: sections[0].Title, Data: Flatten(sections)}}
	}

	used := make(map[string]int)
	for i, section := range sections {
		name := uniqueSheetName(section.Title, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, section.Data, opts, boldStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, data Dataset, opts DocumentOptions, boldStyle int) error {
	row := 1
	meta := make([]string, 0, 2)
	if opts.CompanyName != "" {
		meta = append(meta, opts.CompanyName)
	}
	if opts.DriveDate != "" {
		meta = append(meta, "Drive date: "+opts.DriveDate)
	}
	for _, line := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return fmt.Errorf("write sheet metadata: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, boldStyle); err != nil {
			return fmt.Errorf("style sheet metadata: %w", err)
		}
		row++
	}
	if len(meta) > 0 {
		row++
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(data.Headers), row)
	if err := f.SetSheetRow(sheet, first, &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	if err := f.SetCellStyle(sheet, first, last, boldStyle); err != nil {
		return fmt.Errorf("style header row: %w", err)
	}

	record := make([]interface{}, len(data.Headers))
	for _, values := range data.Rows {
		row++
		for i, h := range data.Headers {
			record[i] = values[h]
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func uniqueSheetName(title string, used map[string]int) string {
	name := strings.TrimSpace(sheetNameCleaner.Replace(title))
	if name == "" {
		name = defaultSheet
	}
	if runes := []rune(name); len(runes) > maxSheetNameRunes {
		name = string(runes[:maxSheetNameRunes])
	}
	key := strings.ToLower(name)
	used[key]++
	if n := used[key]; n > 1 {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetNameRunes {
			runes = runes[:maxSheetNameRunes-len(suffix)]
		}
		name = string(runes) + suffix
	}
	return name
}

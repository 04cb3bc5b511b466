package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/decoder"
)

// maxSheetName is the longest worksheet name Excel accepts.
const maxSheetName = 31

// XLSXOptions controls workbook output.
type XLSXOptions struct {
	SheetName string

	// LinkLabel and LinkTarget name a pair of fields. When both are set,
	// cells of LinkLabel become hyperlinks to the URL in LinkTarget.
	LinkLabel  string
	LinkTarget string
}

// WriteXLSX writes one worksheet with a bold header row. Numbers are
// stored as numeric cells so they stay sortable in a spreadsheet.
func WriteXLSX(w io.Writer, columns []core.Column, records []decoder.Record, opts XLSXOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(opts.SheetName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(columns) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("create header style: %w", err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	linkCol := -1
	if opts.LinkLabel != "" && opts.LinkTarget != "" {
		for i, c := range columns {
			if c.Field == opts.LinkLabel {
				linkCol = i
			}
		}
	}

	for n, rec := range records {
		rowNum := n + 2
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = cellValue(rec[c.Field])
		}

		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", n+1, err)
		}

		if linkCol >= 0 {
			target, ok := rec[opts.LinkTarget].Text()
			if !ok || !isWebURL(target) {
				continue
			}
			linkCell, err := excelize.CoordinatesToCellName(linkCol+1, rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellHyperLink(sheet, linkCell, target, "External"); err != nil {
				return fmt.Errorf("link row %d: %w", n+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v decoder.Value) any {
	switch v.Kind() {
	case decoder.KindNumber:
		n, _ := v.Number()
		return n
	case decoder.KindText:
		s, _ := v.Text()
		return s
	default:
		return nil
	}
}

// SheetName turns a title into a valid worksheet name.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func isWebURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Package workbook parses downloaded xlsx bytes into in-memory tabs.
package workbook

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/xuri/excelize/v2"
)

// MissingTabsError reports selected tabs that are absent from the workbook.
type MissingTabsError struct {
	Missing   []string
	Available []string
}

func (e *MissingTabsError) Error() string {
	return fmt.Sprintf("tabs not found: %s (available: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

func (e *MissingTabsError) Unwrap() error {
	return common.ErrTabNotFound
}

// SheetNames lists the tabs of a workbook without reading any rows.
func SheetNames(data []byte) ([]string, error) {
	f, err := open(data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return f.GetSheetList(), nil
}

// Parse loads the rows of every selected tab. All selected tabs must exist;
// tabs that were not selected are never read.
func Parse(data []byte, selected []string) (*model.Workbook, error) {
	f, err := open(data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()

	var missing []string
	for _, tab := range selected {
		if !slices.Contains(names, tab) {
			missing = append(missing, tab)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingTabsError{Missing: missing, Available: names}
	}

	wb := model.NewWorkbook(names)
	for _, tab := range selected {
		sheet, err := readSheet(f, tab)
		if err != nil {
			return nil, err
		}
		wb.Add(sheet)
	}

	return wb, nil
}

func open(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidWorkbook, err)
	}
	return f, nil
}

// readSheet streams a tab row by row, reading raw cell values so display
// formats never leak into the data. Rows keep their position: an empty
// source row becomes an empty row so later rows land on the same line.
func readSheet(f *excelize.File, name string) (*model.Sheet, error) {
	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: reading tab %q: %w", common.ErrInvalidWorkbook, name, err)
	}
	defer func() { _ = rows.Close() }()

	cells := newCellReader(f, name)
	sheet := &model.Sheet{Name: name}
	for rows.Next() {
		rowNum := len(sheet.Rows) + 1

		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: tab %q row %d: %w", common.ErrInvalidWorkbook, name, rowNum, err)
		}

		row := make([]any, len(cols))
		for i, col := range cols {
			if row[i], err = cells.value(i+1, rowNum, col); err != nil {
				return nil, fmt.Errorf("%w: tab %q row %d: %w", common.ErrInvalidWorkbook, name, rowNum, err)
			}
		}

		sheet.Rows = append(sheet.Rows, row)
		if len(row) > sheet.Columns {
			sheet.Columns = len(row)
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: tab %q: %w", common.ErrInvalidWorkbook, name, err)
	}

	return sheet, nil
}

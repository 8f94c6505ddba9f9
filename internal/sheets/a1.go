package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetter converts a 1-based column number to its A1 letters (1 -> A, 27 -> AA).
func ColumnLetter(n int) string {
	if n <= 0 {
		return ""
	}

	var b []byte
	for n > 0 {
		n--
		b = append(b, byte('A'+n%26))
		n /= 26
	}

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// QuoteTab quotes a tab title for use in A1 notation.
func QuoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// TabRange addresses every cell of a tab.
func TabRange(tab string) string {
	return QuoteTab(tab)
}

// StartCell addresses a single cell, e.g. 'Sales'!A1.
func StartCell(tab string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", QuoteTab(tab), ColumnLetter(col), row)
}

// RowRange addresses whole rows first through last of a tab, e.g. 'Sales'!1:10.
func RowRange(tab string, first, last int) string {
	return fmt.Sprintf("%s!%d:%d", QuoteTab(tab), first, last)
}

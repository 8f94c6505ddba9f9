package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/sheetsync/internal/model"
)

// RenderTransferSummary renders a completed transfer as a boxed report.
func RenderTransferSummary(result *model.TransferResult) string {
	var b strings.Builder

	if result.SourceName != "" {
		fmt.Fprintf(&b, "Source: %s\n", result.SourceName)
	}
	fmt.Fprintf(&b, "Spreadsheet: %s", result.SpreadsheetURL)
	if result.Created {
		b.WriteString(" " + SubtleStyle.Render("(new)"))
	}
	b.WriteString("\n\n")

	rows := make([][]string, 0, len(result.Tabs))
	total := 0
	for _, tab := range result.Tabs {
		cleared := ""
		if tab.Cleared {
			cleared = SuccessIcon
		}
		rows = append(rows, []string{
			tab.Name,
			fmt.Sprint(tab.Rows),
			fmt.Sprint(tab.Columns),
			fmt.Sprint(tab.Batches),
			cleared,
		})
		total += tab.Rows
	}
	b.WriteString(RenderTable([]string{"Tab", "Rows", "Columns", "Batches", "Cleared"}, rows))

	fmt.Fprintf(&b, "\n\n%s rows in %s", fmt.Sprint(total), result.Duration.Round(time.Millisecond))

	return RenderBox("Transfer Complete", b.String())
}

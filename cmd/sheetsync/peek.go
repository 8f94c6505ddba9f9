package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/sheets"
	"github.com/spf13/cobra"
)

func peekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peek <spreadsheet-id> <tab>",
		Short: "Print the first rows of a spreadsheet tab",
		Args:  cobra.ExactArgs(2),
		RunE:  runPeek,
	}

	cmd.Flags().IntP("rows", "n", 10, "number of rows to show")

	return cmd
}

func runPeek(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	spreadsheetID, tab := args[0], args[1]

	n, _ := cmd.Flags().GetInt("rows")
	if n <= 0 {
		return fmt.Errorf("--rows must be positive")
	}

	c, err := newClients(ctx, logger)
	if err != nil {
		return err
	}

	values, err := c.sheets.ReadRange(ctx, spreadsheetID, sheets.RowRange(tab, 1, n))
	if err != nil {
		return err
	}

	if len(values) == 0 {
		fmt.Println(cli.FormatInfo(fmt.Sprintf("%s is empty", tab)))
		return nil
	}

	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}

	header := make([]string, width)
	for i := range header {
		header[i] = sheets.ColumnLetter(i + 1)
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}

	fmt.Println(cli.FormatTitle(tab))
	fmt.Println(cli.RenderTable(header, rows))
	return nil
}

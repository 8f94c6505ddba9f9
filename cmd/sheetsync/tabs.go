package main

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/workbook"
	"github.com/spf13/cobra"
)

func tabsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tabs <file-id>",
		Short: "List the tabs of a Drive workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runTabs,
	}
}

func runTabs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	fileID := args[0]

	c, err := newClients(ctx, logger)
	if err != nil {
		return err
	}

	meta, err := c.drive.Metadata(ctx, fileID)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if meta.MimeType == model.GoogleSheetsMimeType {
		_, err = c.drive.Export(ctx, fileID, model.XLSXMimeType, &buf)
	} else {
		_, err = c.drive.Download(ctx, fileID, &buf)
	}
	if err != nil {
		return err
	}

	names, err := workbook.SheetNames(buf.Bytes())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(names))
	for i, name := range names {
		rows = append(rows, []string{fmt.Sprint(i + 1), name})
	}

	fmt.Println(cli.FormatTitle(meta.Name))
	fmt.Println(cli.RenderTable([]string{"#", "Tab"}, rows))
	return nil
}

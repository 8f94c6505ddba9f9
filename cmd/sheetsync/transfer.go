package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/sheetsync/internal/cli"
	"github.com/Veraticus/sheetsync/internal/config"
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/Veraticus/sheetsync/internal/transfer"
	"github.com/spf13/cobra"
)

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Copy selected tabs of a Drive workbook into a spreadsheet",
		Long: `Download an Excel workbook from Google Drive and write the selected tabs
into a Google Sheets spreadsheet.

Without --destination a new spreadsheet is created next to the source file
(or in --folder). Writes are not atomic: if a batch fails for good, the
batches before it stay in the spreadsheet and the error says how many rows
made it.`,
		Example: `  sheetsync transfer --source 1AbC --destination 1XyZ --tabs mov_general,resumen
  sheetsync transfer --source 1AbC --tabs mov_general --wipe all --value-input user_entered`,
		RunE: runTransfer,
	}

	cmd.Flags().String("source", "", "Drive file id of the source workbook (required)")
	cmd.Flags().String("destination", "", "spreadsheet id to write into (default: create one)")
	cmd.Flags().String("folder", "", "Drive folder for a new spreadsheet (default: the source's folder)")
	cmd.Flags().String("name", "", "name of a new spreadsheet (default: \"<source> (selection)\")")
	cmd.Flags().StringSlice("tabs", nil, "tabs to copy, in order")
	cmd.Flags().String("wipe", "", "clear destination tabs first: none or all")
	cmd.Flags().String("value-input", "", "how Sheets reads values: raw or user_entered")
	cmd.Flags().Int("cell-ceiling", 0, "maximum cells per write call")
	cmd.Flags().Int("max-retries", 0, "attempts per API call")
	cmd.Flags().Int("max-rows-per-batch", 0, "cap on rows per write call (0 = no cap)")

	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func transferRequestFromFlags(cmd *cobra.Command) model.TransferRequest {
	flags := cmd.Flags()

	source, _ := flags.GetString("source")
	destination, _ := flags.GetString("destination")
	folder, _ := flags.GetString("folder")
	name, _ := flags.GetString("name")
	tabs, _ := flags.GetStringSlice("tabs")
	wipe, _ := flags.GetString("wipe")
	valueInput, _ := flags.GetString("value-input")
	ceiling, _ := flags.GetInt("cell-ceiling")
	retries, _ := flags.GetInt("max-retries")
	maxRows, _ := flags.GetInt("max-rows-per-batch")

	return model.TransferRequest{
		SourceFileID:             source,
		DestinationSpreadsheetID: destination,
		DestinationFolderID:      folder,
		NewSpreadsheetName:       name,
		SelectedTabs:             tabs,
		WipeMode:                 model.WipeMode(wipe),
		ValueInputOption:         model.ValueInputOption(valueInput),
		CellCeiling:              ceiling,
		MaxRetries:               retries,
		MaxRowsPerBatch:          maxRows,
	}
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	req := transferRequestFromFlags(cmd).WithDefaults(config.LoadTransferDefaults())

	interrupts := cli.NewInterruptHandler(os.Stderr)
	// The handler owns SIGINT/SIGTERM here so it can report partial writes.
	ctx := interrupts.HandleInterrupts(context.WithoutCancel(cmd.Context()), true)

	c, err := newClients(ctx, logger)
	if err != nil {
		return err
	}

	progress := cli.NewTransferProgress(os.Stderr)
	defer progress.Close()

	transferer := transfer.NewTransferer(c.drive, c.drive, c.sheets, logger,
		transfer.WithObserver(progress),
		transfer.WithDownloadProgress(cli.DownloadProgress(os.Stderr)),
	)

	result, err := transferer.Run(ctx, req)
	progress.Close()

	if err != nil {
		if interrupts.WasInterrupted() {
			return fmt.Errorf("transfer canceled: %w", err)
		}

		var batchErr *transfer.BatchError
		if errors.As(err, &batchErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(fmt.Sprintf(
				"%s: batch %d of %d failed, %d rows were written before it",
				batchErr.Tab, batchErr.Batch+1, batchErr.Batches, batchErr.RowsWritten)))
		}
		return err
	}

	fmt.Println(cli.RenderTransferSummary(result))
	return nil
}

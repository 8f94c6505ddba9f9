// Package sheets provides the Google Sheets API client used as a transfer destination.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client implements service.Spreadsheets on top of the Sheets v4 API.
// Errors are tagged with common.ClassifyGoogleError; retrying is up to the caller.
type Client struct {
	service *sheets.Service
	logger  *slog.Logger
}

// NewClient creates a Sheets client. Pass option.WithHTTPClient with an
// authenticated client from gauth.NewHTTPClient.
func NewClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &Client{
		service: srv,
		logger:  logger,
	}, nil
}

// Tabs lists the tabs of a spreadsheet in display order.
func (c *Client) Tabs(ctx context.Context, spreadsheetID string) ([]model.Tab, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.wrap(err, "unable to access spreadsheet %s", spreadsheetID)
	}

	tabs := make([]model.Tab, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties == nil {
			continue
		}
		tabs = append(tabs, model.Tab{
			Title:   sheet.Properties.Title,
			SheetID: sheet.Properties.SheetId,
		})
	}

	return tabs, nil
}

// AddTabs appends empty tabs with the given titles in a single batch update.
func (c *Client) AddTabs(ctx context.Context, spreadsheetID string, titles []string) error {
	if len(titles) == 0 {
		return nil
	}

	requests := make([]*sheets.Request, 0, len(titles))
	for _, title := range titles {
		requests = append(requests, &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		})
	}

	_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return c.wrap(err, "unable to add tabs to %s", spreadsheetID)
	}

	c.logger.Debug("added tabs", "spreadsheet_id", spreadsheetID, "tabs", titles)
	return nil
}

// DeleteTab removes a tab by its numeric sheet id.
func (c *Client) DeleteTab(ctx context.Context, spreadsheetID string, sheetID int64) error {
	_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return c.wrap(err, "unable to delete sheet %d from %s", sheetID, spreadsheetID)
	}
	return nil
}

// ReadRange returns the values stored in an A1 range.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]any, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, c.wrap(err, "unable to read %s", a1Range)
	}
	return resp.Values, nil
}

// ClearRange clears the values of an A1 range, keeping formatting.
func (c *Client) ClearRange(ctx context.Context, spreadsheetID, a1Range string) error {
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, a1Range, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return c.wrap(err, "unable to clear %s", a1Range)
	}
	return nil
}

// WriteRange writes rows starting at the top-left cell of a1Range.
func (c *Client) WriteRange(ctx context.Context, spreadsheetID, a1Range string, rows [][]any, option model.ValueInputOption) error {
	valueRange := &sheets.ValueRange{
		Values: rows,
	}

	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, a1Range, valueRange).
		ValueInputOption(string(option)).
		Context(ctx).
		Do()
	if err != nil {
		return c.wrap(err, "unable to write %d rows at %s", len(rows), a1Range)
	}

	c.logger.Debug("wrote range", "range", a1Range, "rows", len(rows))
	return nil
}

func (c *Client) wrap(err error, format string, args ...any) error {
	classified := common.ClassifyGoogleError(err)
	if common.StatusCode(err) == http.StatusNotFound {
		classified = errors.Join(common.ErrDestinationNotFound, classified)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), classified)
}

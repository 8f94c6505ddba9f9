// Package drive downloads workbooks from Google Drive and creates destination spreadsheets.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const metadataFields = "id,name,parents,mimeType,size"

// Fetcher implements service.FileFetcher and service.SpreadsheetCreator.
type Fetcher struct {
	files  *drive.FilesService
	logger *slog.Logger
}

// NewFetcher creates a Drive client. Pass option.WithHTTPClient with an
// authenticated client from gauth.NewHTTPClient.
func NewFetcher(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Fetcher, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &Fetcher{
		files:  srv.Files,
		logger: logger,
	}, nil
}

// Metadata returns name, mime type, size and parents of a file.
func (f *Fetcher) Metadata(ctx context.Context, fileID string) (*model.FileMetadata, error) {
	file, err := f.files.Get(fileID).
		Fields(metadataFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrap(err, "unable to read metadata for %s", fileID)
	}

	return &model.FileMetadata{
		ID:       file.Id,
		Name:     file.Name,
		MimeType: file.MimeType,
		Parents:  file.Parents,
		Size:     file.Size,
	}, nil
}

// Download streams the binary contents of a file into w.
func (f *Fetcher) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	resp, err := f.files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return 0, wrap(err, "unable to download %s", fileID)
	}
	defer func() { _ = resp.Body.Close() }()

	return f.copy(ctx, fileID, w, resp)
}

// Export converts a Google-native file (such as a Google Sheet) to mimeType and
// streams the result into w.
func (f *Fetcher) Export(ctx context.Context, fileID, mimeType string, w io.Writer) (int64, error) {
	resp, err := f.files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return 0, wrap(err, "unable to export %s as %s", fileID, mimeType)
	}
	defer func() { _ = resp.Body.Close() }()

	return f.copy(ctx, fileID, w, resp)
}

// CreateSpreadsheet creates an empty Google Sheets file inside folderID.
func (f *Fetcher) CreateSpreadsheet(ctx context.Context, name, folderID string) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: model.GoogleSheetsMimeType,
	}
	if folderID != "" {
		file.Parents = []string{folderID}
	}

	created, err := f.files.Create(file).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrap(err, "unable to create spreadsheet %q", name)
	}

	f.logger.Info("created spreadsheet", "id", created.Id, "name", name, "folder_id", folderID)
	return created.Id, nil
}

func (f *Fetcher) copy(ctx context.Context, fileID string, w io.Writer, resp *http.Response) (int64, error) {
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		// A connection dropped mid-body is worth another attempt.
		return n, fmt.Errorf("download of %s interrupted after %d bytes: %w", fileID, n, common.Transient(err))
	}

	f.logger.Debug("downloaded file", "file_id", fileID, "bytes", n)
	return n, nil
}

func wrap(err error, format string, args ...any) error {
	classified := common.ClassifyGoogleError(err)
	if common.StatusCode(err) == http.StatusNotFound {
		classified = errors.Join(common.ErrSourceNotFound, classified)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), classified)
}

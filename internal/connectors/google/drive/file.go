package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// Google Workspace MIME types that can be exported.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
)

// Export formats for Google Workspace files.
const (
	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// MaxExportSize is the maximum size for exported content (5MB).
const MaxExportSize = 5 * 1024 * 1024

// FileURI builds the canonical URI for a Drive file.
func FileURI(fileID string) string {
	return fmt.Sprintf("gdrive://files/%s", fileID)
}

// FileToRawDocument converts a Drive file to a RawDocument, fetching
// its text content. Returns nil for folders.
func FileToRawDocument(ctx context.Context, svc *drive.Service, file *drive.File, sourceID string) (*domain.RawDocument, error) {
	if file.MimeType == MimeTypeFolder {
		return nil, nil
	}

	content, exportedMime, err := fetchFileContent(ctx, svc, file)
	if err != nil {
		return nil, err
	}

	// Exported Workspace files carry the export format, downloads keep
	// their original type.
	mimeType := file.MimeType
	if exportedMime != "" {
		mimeType = exportedMime
	}

	var modifiedAt time.Time
	if file.ModifiedTime != "" {
		if ts, err := time.Parse(time.RFC3339, file.ModifiedTime); err == nil {
			modifiedAt = ts
		}
	}

	return &domain.RawDocument{
		SourceID:   sourceID,
		DocumentID: file.Id,
		Name:       file.Name,
		URI:        FileURI(file.Id),
		MIMEType:   mimeType,
		Content:    []byte(content),
		ModifiedAt: modifiedAt,
	}, nil
}

// fetchFileContent retrieves the text content of a file.
// Returns (content, exportedMIME, error) where exportedMIME is non-empty
// if the file was converted from a Workspace format.
func fetchFileContent(ctx context.Context, svc *drive.Service, file *drive.File) (string, string, error) {
	switch file.MimeType {
	case MimeTypeGoogleDoc:
		content, err := exportGoogleFile(ctx, svc, file.Id, ExportMimeText)
		return content, ExportMimeText, err
	case MimeTypeGoogleSheet:
		content, err := exportGoogleFile(ctx, svc, file.Id, ExportMimeCSV)
		return content, ExportMimeCSV, err
	case MimeTypeGoogleSlides:
		content, err := exportGoogleFile(ctx, svc, file.Id, ExportMimeText)
		return content, ExportMimeText, err
	}

	// Binary and oversized files are indexed by name only.
	if !isTextFile(file.MimeType) || file.Size > MaxExportSize {
		return "", "", nil
	}

	resp, err := svc.Files.Get(file.Id).Context(ctx).Download()
	if err != nil {
		return "", "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, MaxExportSize)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", "", fmt.Errorf("read file content: %w", err)
	}

	return string(data), "", nil
}

// exportGoogleFile exports a Google Workspace file to the given format.
func exportGoogleFile(ctx context.Context, svc *drive.Service, fileID, exportMime string) (string, error) {
	resp, err := svc.Files.Export(fileID, exportMime).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	limitedReader := io.LimitReader(resp.Body, MaxExportSize)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}

	return string(data), nil
}

// isTextFile checks if a MIME type is likely text content.
func isTextFile(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}

	textTypes := []string{
		"application/json",
		"application/xml",
		"application/javascript",
		"application/x-yaml",
		"application/x-sh",
		"application/sql",
	}

	for _, t := range textTypes {
		if mimeType == t {
			return true
		}
	}

	return false
}

// ShouldSyncFile checks if a file should be synced based on config.
func ShouldSyncFile(file *drive.File, cfg *Config) bool {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return false
	}

	// Workspace types with no text export (forms, shortcuts, maps)
	// are skipped.
	if strings.HasPrefix(file.MimeType, "application/vnd.google-apps.") {
		switch file.MimeType {
		case MimeTypeGoogleDoc, MimeTypeGoogleSheet, MimeTypeGoogleSlides:
		default:
			return false
		}
	}

	return cfg.MatchesMimeType(file.MimeType)
}

package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/grnsync/internal/instrumentation"
)

const (
	// FolderMimeType is the MIME type for Google Drive folders
	FolderMimeType = "application/vnd.google-apps.folder"

	// MaxDownloadSize caps a single download.
	MaxDownloadSize = 100 * 1024 * 1024

	listPageSize = 1000
	fileFields   = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink, parents"
)

// Config configures a Client.
type Config struct {
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Google Drive API service
type Client struct {
	service *drive.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Drive client. Pass option.WithHTTPClient with an
// authorized client in production.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{service: svc, metrics: cfg.Metrics, logger: logger}, nil
}

func (c *Client) track(ctx context.Context, op string, fn func(context.Context) error) error {
	return instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceDrive, op, fn)
}

// EnsureFolder returns the ID of the folder called name under parentID,
// creating it when no such folder exists. An empty parentID searches and
// creates at the root of My Drive.
func (c *Client) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("folder name is required")
	}

	var list *drive.FileList
	err := c.track(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		var err error
		list, err = c.service.Files.List().
			Q(FolderQuery(name, parentID)).
			Fields("files(id, name)").
			PageSize(1).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder := &drive.File{Name: name, MimeType: FolderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}
	var created *drive.File
	err = c.track(ctx, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = c.service.Files.Create(folder).Fields("id").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	c.logger.Info("created drive folder", slog.String("folder", name), slog.String("folder_id", created.Id))
	return created.Id, nil
}

// Upload stores data as a new file in parentID.
func (c *Client) Upload(ctx context.Context, name, parentID, mimeType string, data []byte) (*FileInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("file name is required")
	}
	file := &drive.File{Name: name, MimeType: mimeType}
	if parentID != "" {
		file.Parents = []string{parentID}
	}

	var created *drive.File
	err := c.track(ctx, instrumentation.OperationUpload, func(ctx context.Context) error {
		var err error
		created, err = c.service.Files.Create(file).
			Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
			Fields(fileFields).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file %s: %w", name, err)
	}
	return convertToFileInfo(created), nil
}

// ListCreatedBetween lists files in folderID with one of mimeTypes whose
// createdTime lies in [from, to], newest first. Every page is fetched, and
// each file's createdTime is checked again on the client.
func (c *Client) ListCreatedBetween(ctx context.Context, folderID string, mimeTypes []string, from, to time.Time) ([]*FileInfo, error) {
	query := CreatedBetweenQuery(folderID, mimeTypes, from, to)

	var (
		files     []*FileInfo
		pageToken string
	)
	for {
		call := c.service.Files.List().
			Q(query).
			Fields(googleapi.Field("nextPageToken, files(" + fileFields + ")")).
			PageSize(listPageSize).
			OrderBy("createdTime desc")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var list *drive.FileList
		err := c.track(ctx, instrumentation.OperationList, func(ctx context.Context) error {
			var err error
			list, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list files in %s: %w", folderID, err)
		}

		for _, f := range list.Files {
			info := convertToFileInfo(f)
			if info.CreatedTime.Before(from) || info.CreatedTime.After(to) {
				c.logger.Debug("dropping file outside the date range",
					slog.String("file", info.Name),
					slog.Time("created", info.CreatedTime))
				continue
			}
			files = append(files, info)
		}
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}
	return files, nil
}

// Download returns the content of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}
	var data []byte
	err := c.track(ctx, instrumentation.OperationDownload, func(ctx context.Context) error {
		resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
		if err != nil {
			return err
		}
		if len(data) > MaxDownloadSize {
			return fmt.Errorf("file exceeds maximum size %d", MaxDownloadSize)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return data, nil
}

// FolderQuery finds a non-trashed folder by name, optionally below parentID.
func FolderQuery(name, parentID string) string {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), FolderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	return q
}

// CreatedBetweenQuery finds files of the given types created in a range.
func CreatedBetweenQuery(folderID string, mimeTypes []string, from, to time.Time) string {
	types := make([]string, len(mimeTypes))
	for i, m := range mimeTypes {
		types[i] = fmt.Sprintf("mimeType='%s'", escapeQuery(m))
	}
	return fmt.Sprintf("'%s' in parents and (%s) and createdTime >= '%s' and createdTime <= '%s' and trashed=false",
		escapeQuery(folderID),
		strings.Join(types, " or "),
		from.UTC().Format(time.RFC3339Nano),
		to.UTC().Format(time.RFC3339Nano))
}

// escapeQuery escapes a value for a single-quoted Drive query string.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// convertToFileInfo converts a Drive API File to our FileInfo type
func convertToFileInfo(f *drive.File) *FileInfo {
	fileInfo := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
	}
	if f.CreatedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
			fileInfo.CreatedTime = t
		}
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			fileInfo.ModifiedTime = t
		}
	}
	return fileInfo
}

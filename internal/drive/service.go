package drive

import (
	"context"
	"fmt"
	"strings"
	"time"

	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond stays well under the per-user Drive quota.
const DefaultRequestsPerSecond = 8.0

const (
	listFields = "nextPageToken, files(id, name, createdTime, modifiedTime, mimeType)"
	pageSize   = 1000
)

// File is the subset of Drive file metadata the catalog uses.
type File struct {
	ID       string
	Name     string
	MimeType string
	Created  time.Time
	Modified time.Time
}

// Lister lists the files of a Drive folder.
type Lister interface {
	ListFolder(ctx context.Context, folderID string) ([]File, error)
}

// Service lists folders through the Drive v3 API.
type Service struct {
	files   *drivev3.FilesService
	limiter *rate.Limiter
}

// NewService builds a Drive client. rps paces API calls; a non-positive value
// selects DefaultRequestsPerSecond.
func NewService(ctx context.Context, rps float64, opts ...option.ClientOption) (*Service, error) {
	svc, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Service{
		files:   svc.Files,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// ListFolder returns the non-trashed direct children of folderID, following
// pagination.
func (s *Service) ListFolder(ctx context.Context, folderID string) ([]File, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folder id is required")
	}
	q := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))

	var out []File
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := s.files.List().
			Q(q).
			Fields(googleapi.Field(listFields)).
			PageSize(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}
		for _, f := range res.Files {
			out = append(out, File{
				ID:       f.Id,
				Name:     f.Name,
				MimeType: f.MimeType,
				Created:  parseTime(f.CreatedTime),
				Modified: parseTime(f.ModifiedTime),
			})
		}
		pageToken = res.NextPageToken
		if pageToken == "" {
			return out, nil
		}
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

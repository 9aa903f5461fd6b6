package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore keeps uploads in a Google Drive folder shared through a
// service account. Files are made readable by anyone with the link.
type DriveStore struct {
	svc      *drive.Service
	folderID string
}

// NewDriveStore loads service-account credentials from credentialsPath or,
// when empty, from credentialsJSON.
func NewDriveStore(ctx context.Context, credentialsPath, credentialsJSON, folderID string) (*DriveStore, error) {
	if folderID == "" {
		return nil, errors.New("GOOGLE_DRIVE_FOLDER_ID must be set")
	}

	raw := []byte(credentialsJSON)
	if credentialsPath != "" {
		b, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("read drive credentials: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, errors.New("GOOGLE_DRIVE_CREDENTIALS_PATH or GOOGLE_DRIVE_CREDENTIALS_JSON must be set")
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("load drive credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveStore{svc: svc, folderID: folderID}, nil
}

func (s *DriveStore) Upload(ctx context.Context, data []byte, name, contentType string) (string, error) {
	// Drive folders are flat here: the bucket becomes part of the file name.
	fileName := strings.ReplaceAll(path.Clean(name), "/", "__")

	existing, err := s.svc.Files.List().
		Q(fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escapeQuery(fileName), s.folderID)).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("look up %s: %w", fileName, err)
	}

	media := bytes.NewReader(data)
	var file *drive.File
	if len(existing.Files) > 0 {
		file, err = s.svc.Files.Update(existing.Files[0].Id, &drive.File{MimeType: contentType}).
			Media(media, googleapi.ContentType(contentType)).
			Fields("id", "webViewLink").
			Context(ctx).
			Do()
	} else {
		file, err = s.svc.Files.Create(&drive.File{
			Name:     fileName,
			Parents:  []string{s.folderID},
			MimeType: contentType,
		}).
			Media(media, googleapi.ContentType(contentType)).
			Fields("id", "webViewLink").
			Context(ctx).
			Do()
	}
	if err != nil {
		return "", fmt.Errorf("store %s: %w", fileName, err)
	}

	_, err = s.svc.Permissions.Create(file.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("share %s: %w", fileName, err)
	}
	return file.WebViewLink, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `'`, `\'`)
}

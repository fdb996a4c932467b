// ABOUTME: Remote file adapter on the Google Drive API
// ABOUTME: Ships the whole dataset as a SQLite snapshot file stored in Drive
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/harperreed/polsync/db"
	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	// DatabaseFileName is the fixed remote filename used for discovery.
	DatabaseFileName = "polsync.db"

	databaseMIMEType    = "application/x-sqlite3"
	databaseDescription = "Polsync insurance CRM database export"
)

// DriveBackend persists the dataset as a single SQLite file in Drive.
// The snapshot database lives at workDir and is rebuilt on every save,
// so the uploaded blob is always a wholesale replacement.
type DriveBackend struct {
	drive   *drive.Service
	workDir string
}

// NewDriveBackend wires the backend over an authenticated Drive service.
// workDir holds the local working copy of the snapshot database.
func NewDriveBackend(driveSvc *drive.Service, workDir string) *DriveBackend {
	return &DriveBackend{drive: driveSvc, workDir: workDir}
}

func (b *DriveBackend) Name() string {
	return models.BackendDrive
}

// FindExisting searches Drive for the fixed database filename.
func (b *DriveBackend) FindExisting(ctx context.Context) (string, error) {
	list, err := b.drive.Files.List().
		Q(fmt.Sprintf("name='%s' and trashed=false", DatabaseFileName)).
		Fields("files(id)").
		PageSize(1).
		Context(ctx).Do()
	if err != nil {
		return "", &SyncError{Op: "find", Backend: b.Name(), Err: err}
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// Create uploads an empty snapshot and returns the new file's identifier.
func (b *DriveBackend) Create(ctx context.Context) (string, error) {
	blob, err := b.buildSnapshot(state.Collections{})
	if err != nil {
		return "", &SyncError{Op: "create", Backend: b.Name(), Err: err}
	}
	return b.upload(ctx, blob, "")
}

// Save rebuilds the snapshot from data and uploads it, updating the
// existing remote file in place.
func (b *DriveBackend) Save(ctx context.Context, resourceID string, data state.Collections) error {
	blob, err := b.buildSnapshot(data)
	if err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}
	if _, err := b.upload(ctx, blob, resourceID); err != nil {
		return err
	}
	return nil
}

// Load downloads the remote file and rehydrates the dataset from it.
// Products are not part of the snapshot schema; callers keep their local
// product catalog.
func (b *DriveBackend) Load(ctx context.Context, resourceID string) (state.Collections, error) {
	resp, err := b.drive.Files.Get(resourceID).Context(ctx).Download()
	if err != nil {
		return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
	}

	snapshot, err := db.Import(blob, b.snapshotPath())
	if err != nil {
		return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
	}
	defer snapshot.Close()

	clients, policies, err := db.LoadFullState(snapshot)
	if err != nil {
		return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
	}
	return state.Collections{Clients: clients, Policies: policies}, nil
}

// buildSnapshot writes data into a fresh snapshot database and exports
// it as a binary blob.
func (b *DriveBackend) buildSnapshot(data state.Collections) ([]byte, error) {
	snapshot, err := db.Open(b.snapshotPath())
	if err != nil {
		return nil, err
	}
	defer snapshot.Close()

	if err := db.SaveFullState(snapshot, data.Clients, data.Policies); err != nil {
		return nil, err
	}
	return db.Export(snapshot)
}

// upload creates or updates the remote file via a multipart media
// upload. An empty existingID creates a new file.
func (b *DriveBackend) upload(ctx context.Context, blob []byte, existingID string) (string, error) {
	media := bytes.NewReader(blob)

	if existingID != "" {
		updated, err := b.drive.Files.Update(existingID, &drive.File{}).
			Media(media, googleapi.ContentType(databaseMIMEType)).
			Context(ctx).Do()
		if err != nil {
			return "", &SyncError{Op: "save", Backend: b.Name(), Err: err}
		}
		return updated.Id, nil
	}

	created, err := b.drive.Files.Create(&drive.File{
		Name:        DatabaseFileName,
		Description: databaseDescription,
		MimeType:    databaseMIMEType,
	}).Media(media, googleapi.ContentType(databaseMIMEType)).
		Context(ctx).Do()
	if err != nil {
		return "", &SyncError{Op: "create", Backend: b.Name(), Err: err}
	}
	return created.Id, nil
}

func (b *DriveBackend) snapshotPath() string {
	return filepath.Join(b.workDir, DatabaseFileName)
}

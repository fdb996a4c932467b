// ABOUTME: Tests for spreadsheet discovery on the sheets backend
// ABOUTME: Uses a stub Drive API server to cover listing and find-by-title
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

func newStubDriveService(t *testing.T, handler http.HandlerFunc) *drive.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := drive.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(server.URL))
	if err != nil {
		t.Fatalf("failed to create drive service: %v", err)
	}
	return svc
}

func TestListSpreadsheets(t *testing.T) {
	var gotQuery string
	svc := newStubDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{
				{"id": "sheet-new", "name": "Q3 book"},
				{"id": "sheet-old", "name": "Polsync CRM Data"},
			},
		})
	})

	backend := NewSheetsBackend(nil, svc)
	infos, err := backend.ListSpreadsheets(context.Background())
	if err != nil {
		t.Fatalf("ListSpreadsheets failed: %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 spreadsheets, got %d", len(infos))
	}
	if infos[0].ID != "sheet-new" || infos[0].Name != "Q3 book" {
		t.Errorf("unexpected first entry: %+v", infos[0])
	}
	if !strings.Contains(gotQuery, "application/vnd.google-apps.spreadsheet") {
		t.Errorf("expected spreadsheet mime filter in query, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "trashed=false") {
		t.Errorf("expected trashed filter in query, got %q", gotQuery)
	}
}

func TestListSpreadsheetsEmpty(t *testing.T) {
	svc := newStubDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": []map[string]string{}})
	})

	backend := NewSheetsBackend(nil, svc)
	infos, err := backend.ListSpreadsheets(context.Background())
	if err != nil {
		t.Fatalf("ListSpreadsheets failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no spreadsheets, got %d", len(infos))
	}
}

func TestListSpreadsheetsWrapsAPIError(t *testing.T) {
	svc := newStubDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
	})

	backend := NewSheetsBackend(nil, svc)
	_, err := backend.ListSpreadsheets(context.Background())
	if err == nil {
		t.Fatal("expected error from failing API")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %T", err)
	}
	if syncErr.Op != "list" {
		t.Errorf("expected op list, got %q", syncErr.Op)
	}
}

func TestFindExistingByTitle(t *testing.T) {
	var gotQuery string
	svc := newStubDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]string{{"id": "found-id"}},
		})
	})

	backend := NewSheetsBackend(nil, svc)
	id, err := backend.FindExisting(context.Background())
	if err != nil {
		t.Fatalf("FindExisting failed: %v", err)
	}
	if id != "found-id" {
		t.Errorf("expected found-id, got %q", id)
	}
	if !strings.Contains(gotQuery, DefaultSpreadsheetTitle) {
		t.Errorf("expected title filter in query, got %q", gotQuery)
	}
}

func TestFindExistingNoMatch(t *testing.T) {
	svc := newStubDriveService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": []map[string]string{}})
	})

	backend := NewSheetsBackend(nil, svc)
	id, err := backend.FindExisting(context.Background())
	if err != nil {
		t.Fatalf("FindExisting failed: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty id when nothing matches, got %q", id)
	}
}

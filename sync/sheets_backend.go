// ABOUTME: Remote spreadsheet adapter on the Google Sheets API
// ABOUTME: Maps entity collections to header-keyed rows across four fixed sheets
package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// DefaultSpreadsheetTitle is the well-known name used for discovery.
const DefaultSpreadsheetTitle = "Polsync CRM Data"

// Sheet names inside the spreadsheet.
const (
	sheetClients  = "Clients"
	sheetPolicies = "Policies"
	sheetProducts = "Products"
	sheetMeta     = "Meta"
)

// SpreadsheetInfo identifies one spreadsheet visible to the signed-in user.
type SpreadsheetInfo struct {
	ID   string
	Name string
}

// SheetsBackend persists the dataset to a Google Sheets spreadsheet.
// The Drive API is used only for discovery; Sheets for all data access.
type SheetsBackend struct {
	sheets *sheets.Service
	drive  *drive.Service
	title  string
}

// NewSheetsBackend wires the backend over authenticated API services.
func NewSheetsBackend(sheetsSvc *sheets.Service, driveSvc *drive.Service) *SheetsBackend {
	return &SheetsBackend{sheets: sheetsSvc, drive: driveSvc, title: DefaultSpreadsheetTitle}
}

func (b *SheetsBackend) Name() string {
	return models.BackendSheets
}

// ListSpreadsheets enumerates spreadsheets reachable by the signed-in
// identity, newest first.
func (b *SheetsBackend) ListSpreadsheets(ctx context.Context) ([]SpreadsheetInfo, error) {
	list, err := b.drive.Files.List().
		Q("mimeType='application/vnd.google-apps.spreadsheet' and trashed=false").
		OrderBy("modifiedTime desc").
		Fields("files(id, name)").
		Context(ctx).Do()
	if err != nil {
		return nil, &SyncError{Op: "list", Backend: b.Name(), Err: err}
	}

	infos := make([]SpreadsheetInfo, 0, len(list.Files))
	for _, f := range list.Files {
		infos = append(infos, SpreadsheetInfo{ID: f.Id, Name: f.Name})
	}
	return infos, nil
}

// FindExisting searches for the well-known spreadsheet by title.
func (b *SheetsBackend) FindExisting(ctx context.Context) (string, error) {
	list, err := b.drive.Files.List().
		Q(fmt.Sprintf("mimeType='application/vnd.google-apps.spreadsheet' and name='%s' and trashed=false", b.title)).
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

// Create provisions a new spreadsheet with the four fixed sheets and
// writes the header rows plus the schema version.
func (b *SheetsBackend) Create(ctx context.Context) (string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: b.title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetClients}},
			{Properties: &sheets.SheetProperties{Title: sheetPolicies}},
			{Properties: &sheets.SheetProperties{Title: sheetProducts}},
			{Properties: &sheets.SheetProperties{Title: sheetMeta}},
		},
	}

	created, err := b.sheets.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", &SyncError{Op: "create", Backend: b.Name(), Err: err}
	}

	if err := b.Save(ctx, created.SpreadsheetId, state.Collections{}); err != nil {
		return "", err
	}
	return created.SpreadsheetId, nil
}

// Save clears the existing data ranges and rewrites every row, so a
// shrinking collection never leaves stale rows behind.
func (b *SheetsBackend) Save(ctx context.Context, resourceID string, data state.Collections) error {
	clientRows, err := encodeClients(data.Clients)
	if err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}
	policyRows, err := encodePolicies(data.Policies)
	if err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}
	productRows, err := encodeProducts(data.Products)
	if err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}

	clear := &sheets.BatchClearValuesRequest{
		Ranges: []string{sheetClients, sheetPolicies, sheetProducts, sheetMeta},
	}
	if _, err := b.sheets.Spreadsheets.Values.BatchClear(resourceID, clear).Context(ctx).Do(); err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}

	update := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{
			{Range: sheetClients, Values: clientRows},
			{Range: sheetPolicies, Values: policyRows},
			{Range: sheetProducts, Values: productRows},
			{Range: sheetMeta, Values: [][]interface{}{{"schema_version", strconv.Itoa(SchemaVersion)}}},
		},
	}
	if _, err := b.sheets.Spreadsheets.Values.BatchUpdate(resourceID, update).Context(ctx).Do(); err != nil {
		return &SyncError{Op: "save", Backend: b.Name(), Err: err}
	}

	return nil
}

// Load reads all three data sheets back and decodes them.
func (b *SheetsBackend) Load(ctx context.Context, resourceID string) (state.Collections, error) {
	resp, err := b.sheets.Spreadsheets.Values.BatchGet(resourceID).
		Ranges(sheetClients, sheetPolicies, sheetProducts).
		Context(ctx).Do()
	if err != nil {
		return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
	}

	var data state.Collections
	for _, vr := range resp.ValueRanges {
		switch rangeSheet(vr.Range) {
		case sheetClients:
			data.Clients, err = decodeClients(vr.Values)
		case sheetPolicies:
			data.Policies, err = decodePolicies(vr.Values)
		case sheetProducts:
			data.Products, err = decodeProducts(vr.Values)
		}
		if err != nil {
			return state.Collections{}, &SyncError{Op: "load", Backend: b.Name(), Err: err}
		}
	}
	return data, nil
}

// rangeSheet extracts the sheet name from an A1 range like "Clients!A1:K3".
func rangeSheet(a1 string) string {
	for i, r := range a1 {
		if r == '!' {
			return trimQuotes(a1[:i])
		}
	}
	return trimQuotes(a1)
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

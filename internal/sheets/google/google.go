// Package google mirrors a ledger into a Google Sheets tab: one header row
// followed by one row per expense.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/storage"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Budget"

var _ storage.Store = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// New creates a Sheets-backed store for the given spreadsheet and tab.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: missing GOOGLE_SPREADSHEET_ID", core.ErrValidation)
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, core.Persistence("sheets service", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Save clears the tab and writes the whole ledger.
func (c *Client) Save(ctx context.Context, snap ledger.Snapshot) error {
	if c.svc == nil {
		return core.Persistence("save to sheets", errors.New("sheets service not initialized"))
	}

	rng := fmt.Sprintf("%s!A:ZZ", c.sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return core.Persistence("clear sheet "+c.sheet, err)
	}

	vr := &gsheet.ValueRange{Values: renderLedgerRows(snap)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.sheet+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return core.Persistence("write sheet "+c.sheet, err)
	}

	slog.InfoContext(ctx, "Ledger mirrored to Google Sheets",
		"sheet", c.sheet,
		"expenses", len(snap.Expenses))
	return nil
}

// Load reads the tab back. The roster is taken from the share columns of
// the header row.
func (c *Client) Load(ctx context.Context) (ledger.Snapshot, error) {
	if c.svc == nil {
		return ledger.Snapshot{}, core.Persistence("load from sheets", errors.New("sheets service not initialized"))
	}

	rng := fmt.Sprintf("%s!A:ZZ", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return ledger.Snapshot{}, core.Persistence("read "+rng, err)
	}

	snap, err := parseLedgerRows(resp.Values)
	if err != nil {
		return ledger.Snapshot{}, core.Persistence("parse sheet "+c.sheet, err)
	}
	return snap, nil
}

func (c *Client) Close() error { return nil }

// Package sheets persists entity records in a Google Spreadsheet, one
// worksheet per entity kind. Each row holds (owner, id, json payload), so
// the spreadsheet behaves like the remote row store the record store
// expects.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	colOwner = 0
	colID    = 1
	colBody  = 2
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials, in order of precedence: an OAuth client plus stored token
// (GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE with
// GOOGLE_OAUTH_TOKEN_FILE, see cmd/fintrack-oauth-init), or a service
// account (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service, preferring a stored
// OAuth user token over service account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if svc, ok, err := newOAuthService(ctx); ok {
		return svc, err
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// newOAuthService builds a service from an OAuth client and a token file
// written by cmd/fintrack-oauth-init. ok reports whether OAuth client
// credentials were configured at all.
func newOAuthService(ctx context.Context) (*gsheet.Service, bool, error) {
	clientJSON := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	clientFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
	if clientJSON == "" && clientFile == "" {
		return nil, false, nil
	}

	var raw []byte
	var err error
	if clientJSON != "" {
		raw = []byte(clientJSON)
	} else {
		raw, err = os.ReadFile(clientFile)
		if err != nil {
			return nil, true, fmt.Errorf("read oauth client file: %w", err)
		}
	}

	cfg, err := google.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, true, fmt.Errorf("parse oauth client: %w", err)
	}

	tokenFile := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"))
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	tokenRaw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, true, fmt.Errorf("read oauth token (run fintrack-oauth-init first): %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenRaw, &tok); err != nil {
		return nil, true, fmt.Errorf("parse oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx, goption.WithTokenSource(cfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, true, fmt.Errorf("create sheets service: %w", err)
	}
	return service, true, nil
}

func sheetName(kind core.EntityKind) string {
	return string(kind)
}

// readRows returns the raw rows of the kind's worksheet. A missing
// worksheet reads as empty.
func (c *Client) readRows(ctx context.Context, kind core.EntityKind) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:C", sheetName(kind))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName(kind), err)
	}
	return resp.Values, nil
}

func cell(row []any, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return s
}

// findRow returns the 1-based sheet row holding (owner, id), or 0.
func (c *Client) findRow(ctx context.Context, kind core.EntityKind, owner, id string) (int, error) {
	rows, err := c.readRows(ctx, kind)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if cell(row, colOwner) == owner && cell(row, colID) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

// LoadAll returns every record stored for the owner and kind, in sheet
// order.
func (c *Client) LoadAll(ctx context.Context, kind core.EntityKind, owner string) ([]json.RawMessage, error) {
	rows, err := c.readRows(ctx, kind)
	if err != nil {
		return nil, err
	}

	var records []json.RawMessage
	for _, row := range rows {
		if cell(row, colOwner) != owner {
			continue
		}
		body := cell(row, colBody)
		if body == "" {
			continue
		}
		records = append(records, json.RawMessage(body))
	}

	slog.DebugContext(ctx, "Loaded records from Google Sheets",
		"kind", kind, "owner", owner, "count", len(records))

	return records, nil
}

// Insert appends a new (owner, id, payload) row.
func (c *Client) Insert(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	rng := fmt.Sprintf("%s!A:C", sheetName(kind))
	vr := &gsheet.ValueRange{Values: [][]any{{owner, id, string(record)}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", sheetName(kind), err)
	}

	slog.InfoContext(ctx, "Record saved to Google Sheets", "kind", kind, "id", id)
	return nil
}

// Update rewrites the payload column of the row holding (owner, id).
func (c *Client) Update(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	row, err := c.findRow(ctx, kind, owner, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return fmt.Errorf("update %s/%s: %w", kind, id, core.ErrNotFound)
	}

	rng := fmt.Sprintf("%s!C%d", sheetName(kind), row)
	vr := &gsheet.ValueRange{Values: [][]any{{string(record)}}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s row %d: %w", sheetName(kind), row, err)
	}
	return nil
}

// Delete clears the row holding (owner, id). Cleared rows read back as
// empty and are skipped on load.
func (c *Client) Delete(ctx context.Context, kind core.EntityKind, owner, id string) error {
	row, err := c.findRow(ctx, kind, owner, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return fmt.Errorf("delete %s/%s: %w", kind, id, core.ErrNotFound)
	}

	rng := fmt.Sprintf("%s!A%d:C%d", sheetName(kind), row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s row %d: %w", sheetName(kind), row, err)
	}

	slog.InfoContext(ctx, "Record deleted from Google Sheets", "kind", kind, "id", id)
	return nil
}

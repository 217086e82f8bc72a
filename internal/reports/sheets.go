package reports

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"visaocr/internal/logger"
)

// DefaultWorksheet is the tab reports are appended to.
const DefaultWorksheet = "Slot Reports"

var headers = []interface{}{
	"Reported At", "Consulate", "Earliest Date", "Latest Date", "Slots",
	"Total Slots", "Source", "Confidence", "Fingerprint",
}

var reSpreadsheetID = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SheetsSink appends reports to a Google Sheets worksheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
	log           zerolog.Logger

	mu           sync.Mutex
	headersReady bool
}

// NewSheetsSink authenticates with a service account from credentialsJSON, or from
// the file named by credentialsFile, and targets the sheet at sheetURL.
func NewSheetsSink(ctx context.Context, sheetURL, worksheet, credentialsJSON, credentialsFile string) (*SheetsSink, error) {
	const op = "reports.NewSheetsSink"

	spreadsheetID, err := SpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	creds := []byte(credentialsJSON)
	if len(creds) == 0 {
		if credentialsFile == "" {
			return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
		}
		if creds, err = os.ReadFile(credentialsFile); err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return NewSheetsSinkWithService(svc, spreadsheetID, worksheet), nil
}

// NewSheetsSinkWithService wraps an existing Sheets client.
func NewSheetsSinkWithService(svc *sheets.Service, spreadsheetID, worksheet string) *SheetsSink {
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		log:           logger.WithComponent("reports.sheets"),
	}
}

// SpreadsheetID extracts the document ID from a Google Sheets URL.
func SpreadsheetID(url string) (string, error) {
	m := reSpreadsheetID.FindStringSubmatch(url)
	if len(m) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return m[1], nil
}

// Record implements Sink.
func (s *SheetsSink) Record(ctx context.Context, r Report) error {
	const op = "reports.SheetsSink.Record"

	if err := s.ensureWorksheet(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.svc.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.cellRange("A:I"),
		&sheets.ValueRange{Values: [][]interface{}{rowValues(r)}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append row: %w", op, err)
	}

	s.log.Debug().
		Str("consulate", r.Consulate).
		Str("earliest", r.EarliestDate).
		Msg("Slot report appended")
	return nil
}

// cellRange quotes the worksheet name, which may contain spaces.
func (s *SheetsSink) cellRange(cells string) string {
	return fmt.Sprintf("'%s'!%s", s.worksheet, cells)
}

func rowValues(r Report) []interface{} {
	var total interface{} = ""
	if r.TotalSlots != nil {
		total = *r.TotalSlots
	}
	return []interface{}{
		r.ReportedAt.UTC().Format("2006-01-02 15:04:05"),
		r.Consulate,
		r.EarliestDate,
		r.LatestDate,
		r.SlotCount,
		total,
		r.Source,
		r.Confidence,
		r.Fingerprint,
	}
}

// ensureWorksheet creates the worksheet and its header row on first use.
func (s *SheetsSink) ensureWorksheet(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.headersReady {
		return nil
	}

	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.worksheet {
			exists = true
			break
		}
	}
	if !exists {
		s.log.Info().Str("sheet", s.worksheet).Msg("Creating report worksheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: s.worksheet}}},
			},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headerRange := s.cellRange("A1:I1")
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get headers: %w", err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		_, err = s.svc.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{headers}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to add headers: %w", err)
		}
	}

	s.headersReady = true
	return nil
}

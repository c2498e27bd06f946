// Package sheets reads the customer list from, and publishes report tables to,
// a Google Spreadsheet using service-account credentials.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"edefter/internal/logger"
)

// Service is bound to one spreadsheet.
type Service struct {
	api           *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService authenticates with GOOGLE_APPLICATION_CREDENTIALS (a file)
// or GOOGLE_CREDENTIALS (inline JSON) and binds to the spreadsheet at sheetURL.
func NewSheetsService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewSheetsService"

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, WrapSheetsError(op, sheetURL, err)
	}

	creds, err := credentialsJSON()
	if err != nil {
		return nil, WrapSheetsError(op, spreadsheetID, err)
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, WrapSheetsError(op, spreadsheetID, fmt.Errorf("%w: %v", ErrInvalidCredentials, err))
	}

	api, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, WrapSheetsError(op, spreadsheetID, err)
	}

	log := logger.WithComponent("sheets")
	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Google Sheets client ready")

	return &Service{api: api, spreadsheetID: spreadsheetID, log: log}, nil
}

func credentialsJSON() ([]byte, error) {
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return data, nil
	}
	if inline := os.Getenv("GOOGLE_CREDENTIALS"); inline != "" {
		return []byte(inline), nil
	}
	return nil, ErrMissingCredentials
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

func extractSpreadsheetID(url string) (string, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidURL
	}
	return m[1], nil
}

// columnLetter converts a 1-based column number to its A1 letter (1 -> A, 27 -> AA).
func columnLetter(n int) string {
	var s []byte
	for n > 0 {
		n--
		s = append([]byte{byte('A' + n%26)}, s...)
		n /= 26
	}
	return string(s)
}

// tableRange is the A1 range covering a header row plus rows, width columns wide.
func tableRange(sheetName string, width, rows int) string {
	return fmt.Sprintf("'%s'!A1:%s%d", sheetName, columnLetter(width), rows+1)
}

// ReadRange returns the raw cell values of rangeSpec, e.g. "Müşteriler!A:Z".
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	resp, err := s.api.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).Context(ctx).Do()
	if err != nil {
		return nil, WrapSheetsError(op, rangeSpec, err)
	}

	s.log.Debug().Str("range", rangeSpec).Int("rows", len(resp.Values)).Msg("Range read")
	return resp.Values, nil
}

// ReplaceRows overwrites sheetName with a header row followed by rows,
// creating the tab on first use. Header styling is best effort.
func (s *Service) ReplaceRows(ctx context.Context, sheetName string, headers []string, rows [][]interface{}) error {
	const op = "ReplaceRows"

	sheetID, err := s.sheetID(ctx, sheetName)
	if err != nil {
		return WrapSheetsError(op, sheetName, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	values = append(values, header)
	values = append(values, rows...)

	quoted := fmt.Sprintf("'%s'", sheetName)
	if _, err := s.api.Spreadsheets.Values.Clear(s.spreadsheetID, quoted, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return WrapSheetsError(op, sheetName, err)
	}

	if _, err := s.api.Spreadsheets.Values.Update(s.spreadsheetID, tableRange(sheetName, len(headers), len(rows)),
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return WrapSheetsError(op, sheetName, err)
	}

	if err := s.styleHeader(ctx, sheetID, int64(len(headers))); err != nil {
		s.log.Warn().Err(err).Str("sheet", sheetName).Msg("Header styling failed")
	}

	s.log.Info().Str("sheet", sheetName).Int("rows", len(rows)).Msg("Table published")
	return nil
}

// sheetID returns the numeric ID of the tab named title, adding the tab when
// it is missing.
func (s *Service) sheetID(ctx context.Context, title string) (int64, error) {
	doc, err := s.api.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := s.api.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: title},
		}}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("sheet", title).Msg("Sheet tab created")
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// headerColor matches the header fill of the Excel report (#4472C4).
var headerColor = &sheets.Color{Red: 0x44 / 255.0, Green: 0x72 / 255.0, Blue: 0xC4 / 255.0}

// styleHeader paints the first row like the Excel report, freezes it and
// fits the column widths.
func (s *Service) styleHeader(ctx context.Context, sheetID, columns int64) error {
	requests := []*sheets.Request{
		{RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{SheetId: sheetID, EndRowIndex: 1, EndColumnIndex: columns},
			Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
				BackgroundColor: headerColor,
				TextFormat: &sheets.TextFormat{
					Bold:            true,
					ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
				},
			}},
			Fields: "userEnteredFormat(backgroundColor,textFormat)",
		}},
		{UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
			},
			Fields: "gridProperties.frozenRowCount",
		}},
		{AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{SheetId: sheetID, Dimension: "COLUMNS", EndIndex: columns},
		}},
	}

	_, err := s.api.Spreadsheets.BatchUpdate(s.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}

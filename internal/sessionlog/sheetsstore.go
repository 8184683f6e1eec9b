package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/pilatesflow/internal/catalog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	// Worksheet is the tab of the spreadsheet holding the log.
	Worksheet = "workouts_log"
	// legacyDateFormat is how older rows stored their timestamp, in the server's local time.
	legacyDateFormat = "2006-01-02 15:04"
	columnCount      = 9
)

// sheetHeader names the columns. The first seven match rows written before apparatus and id were recorded.
func sheetHeader() []any {
	return []any{"Date", "User", "Theme", "Duration", "Full_JSON_Data", "Rating", "Notes", "Apparatus", "ID"}
}

// SheetsStore keeps the log in a Google Sheets worksheet, one row per record.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewSheetsService authenticates with a service account key in JSON format.
func NewSheetsService(ctx context.Context, credentialsJSON []byte) (*sheets.Service, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// NewSheetsStore creates a store writing to the spreadsheet spreadsheetID.
func NewSheetsStore(service *sheets.Service, spreadsheetID string, logger *slog.Logger) *SheetsStore {
	return &SheetsStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}
}

// EnsureWorksheet adds the log worksheet with its header row unless the spreadsheet already has it.
func (s *SheetsStore) EnsureWorksheet(ctx context.Context) error {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == Worksheet {
			return nil
		}
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: Worksheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add worksheet: %w", err)
	}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, Worksheet+"!A1",
		&sheets.ValueRange{Values: [][]any{sheetHeader()}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created worksheet", slog.String("worksheet", Worksheet))
	return nil
}

// Append adds r as a new row.
func (s *SheetsStore) Append(ctx context.Context, r Record) error {
	if r.User == "" {
		return fmt.Errorf("%w: empty user", ErrInvalidRecord)
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, Worksheet+"!A:I",
		&sheets.ValueRange{Values: [][]any{recordToRow(r)}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "appended session row",
		slog.String("id", r.ID.String()), slog.String("user", r.User))
	return nil
}

// Query reads every row and returns the user's records, newest first. Rows that can't be parsed are logged and
// skipped.
func (s *SheetsStore) Query(ctx context.Context, user string) ([]Record, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, Worksheet+"!A2:I").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}

	records := []Record{}
	for i, row := range resp.Values {
		r, parseErr := rowToRecord(row)
		if parseErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping malformed session row",
				slog.Int("row", i+2), slog.Any("error", parseErr)) //nolint:mnd // 1-based, after the header.
			continue
		}
		if r.User == user {
			records = append(records, r)
		}
	}
	slices.SortStableFunc(records, func(a, b Record) int { return b.Timestamp.Compare(a.Timestamp) })
	return records, nil
}

func recordToRow(r Record) []any {
	rating := ""
	if r.Rating != nil {
		rating = strconv.Itoa(*r.Rating)
	}
	return []any{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.User,
		string(r.Theme),
		strconv.FormatFloat(r.DurationMinutes, 'f', -1, 64),
		r.Plan,
		rating,
		r.Notes,
		string(r.Apparatus),
		r.ID.String(),
	}
}

var errShortRow = errors.New("row has too few columns")

// rowToRecord parses a row. Rows written before apparatus and id were logged lack the last two columns and store
// an unrated session as rating 0.
func rowToRecord(row []any) (Record, error) {
	const minColumns = 2
	if len(row) < minColumns {
		return Record{}, errShortRow
	}
	cells := make([]string, columnCount)
	for i := range min(len(row), columnCount) {
		cells[i] = strings.TrimSpace(fmt.Sprint(row[i]))
	}

	var (
		r   Record
		err error
	)
	if r.Timestamp, err = parseSheetTime(cells[0]); err != nil {
		return Record{}, err
	}
	r.User = cells[1]
	r.Theme = catalog.Theme(cells[2])
	if cells[3] != "" {
		if r.DurationMinutes, err = strconv.ParseFloat(cells[3], 64); err != nil {
			return Record{}, fmt.Errorf("parse duration %q: %w", cells[3], err)
		}
	}
	r.Plan = cells[4]
	if cells[5] != "" && cells[5] != "0" {
		rating, convErr := strconv.Atoi(cells[5])
		if convErr != nil {
			return Record{}, fmt.Errorf("parse rating %q: %w", cells[5], convErr)
		}
		r.Rating = &rating
	}
	r.Notes = cells[6]
	r.Apparatus = catalog.Apparatus(cells[7])
	if cells[8] != "" {
		if r.ID, err = uuid.Parse(cells[8]); err != nil {
			return Record{}, fmt.Errorf("parse id %q: %w", cells[8], err)
		}
	}
	return r, nil
}

func parseSheetTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyDateFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

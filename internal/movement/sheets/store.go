package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/2beens/babymoves/internal/movement"
	"github.com/2beens/babymoves/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw     = "RAW"
	insertRows        = "INSERT_ROWS"
	DefaultSheetName  = "movements"
	headerRowRangeFmt = "%s!1:1"
)

// Columns is the header row of the movements sheet.
var Columns = []string{"date", "time", "intensity", "frequency", "type", "position"}

var ErrMissingColumn = errors.New("sheet header is missing a column")

type NewStoreParams struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	TracingEnabled  bool
}

// Store keeps movement events as rows of a Google Sheet.
// The sheets service is created once and shared by all requests.
type Store struct {
	service       *gsheets.Service
	spreadsheetID string
	sheetName     string
	// columns is the header layout found in the sheet, set by EnsureHeader
	columns []string
}

func NewStore(ctx context.Context, params NewStoreParams) (*Store, error) {
	credentials, err := os.ReadFile(params.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentials, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}

	if params.TracingEnabled {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
	}

	service, err := gsheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	store := NewStoreWithService(service, params.SpreadsheetID, params.SheetName)
	if err := store.EnsureHeader(ctx); err != nil {
		return nil, err
	}

	log.Debugf("sheets store ready, spreadsheet [%s] sheet [%s]", params.SpreadsheetID, store.sheetName)
	return store, nil
}

func NewStoreWithService(service *gsheets.Service, spreadsheetID, sheetName string) *Store {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		columns:       Columns,
	}
}

// EnsureHeader writes the header row into an empty sheet, or reads the
// column layout of an existing one.
func (s *Store) EnsureHeader(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sheets.ensure_header")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	headerRange := fmt.Sprintf(headerRowRangeFmt, s.sheetName)
	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, headerRange).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("get header row: %w", err)
	}

	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		header := rowStrings(resp.Values[0])
		if _, err := columnIndexes(header); err != nil {
			return err
		}
		s.columns = normalizedHeader(header)
		return nil
	}

	header := make([]interface{}, 0, len(Columns))
	for _, c := range Columns {
		header = append(header, c)
	}
	if _, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, headerRange, &gsheets.ValueRange{
			Values: [][]interface{}{header},
		}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	log.Infof("sheets store: header row written to [%s]", s.sheetName)
	s.columns = Columns
	return nil
}

// Append adds the event as a new row, all values written verbatim.
func (s *Store) Append(ctx context.Context, event movement.Event) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sheets.append")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	row := make([]interface{}, len(s.columns))
	for i, column := range s.columns {
		row[i] = fieldValue(event, column)
	}

	if _, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName, &gsheets.ValueRange{
			Values: [][]interface{}{row},
		}).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	return nil
}

// FetchAll reads every row under the header, in sheet order.
func (s *Store) FetchAll(ctx context.Context) (_ []movement.Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.sheets.fetch_all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	resp, err := s.service.Spreadsheets.Values.
		Get(s.spreadsheetID, s.sheetName).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get rows: %w", err)
	}

	if len(resp.Values) == 0 {
		return []movement.Event{}, nil
	}

	indexes, err := columnIndexes(rowStrings(resp.Values[0]))
	if err != nil {
		return nil, err
	}

	events := make([]movement.Event, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := rowStrings(raw)
		cell := func(column string) string {
			i := indexes[column]
			if i >= len(row) {
				// trailing empty cells are not returned by the api
				return ""
			}
			return row[i]
		}
		events = append(events, movement.Event{
			Date:      cell("date"),
			Time:      cell("time"),
			Intensity: cell("intensity"),
			Frequency: cell("frequency"),
			Type:      cell("type"),
			Position:  cell("position"),
		})
	}

	span.SetAttributes(attribute.Int("rows", len(events)))
	return events, nil
}

func columnIndexes(header []string) (map[string]int, error) {
	indexes := make(map[string]int, len(Columns))
	for i, name := range normalizedHeader(header) {
		if _, ok := indexes[name]; !ok {
			indexes[name] = i
		}
	}
	for _, c := range Columns {
		if _, ok := indexes[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return indexes, nil
}

func normalizedHeader(header []string) []string {
	normalized := make([]string, 0, len(header))
	for _, h := range header {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(h)))
	}
	return normalized
}

func rowStrings(row []interface{}) []string {
	values := make([]string, 0, len(row))
	for _, v := range row {
		if s, ok := v.(string); ok {
			values = append(values, s)
		} else {
			values = append(values, fmt.Sprint(v))
		}
	}
	return values
}

func fieldValue(event movement.Event, column string) string {
	switch column {
	case "date":
		return event.Date
	case "time":
		return event.Time
	case "intensity":
		return event.Intensity
	case "frequency":
		return event.Frequency
	case "type":
		return event.Type
	case "position":
		return event.Position
	default:
		return ""
	}
}

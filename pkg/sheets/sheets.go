package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrNoCredentials = errors.New("no Google credentials configured")

type Options struct {
	CredentialsFile string
	CredentialsJSON string
	SpreadsheetID   string
	// SheetName is the tab to use. Empty means the first tab.
	SheetName string
	// RequestsPerMinute caps calls to the API, the default per-user quota is 60.
	RequestsPerMinute int
	MaxRetries        int
}

type SheetClient struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	limiter       *rate.Limiter
	maxRetries    int
	baseBackoff   time.Duration
	maxBackoff    time.Duration

	mu      sync.Mutex
	sheetID *int64
}

func NewSheetClient(ctx context.Context, opts Options) (*SheetClient, error) {
	var cred option.ClientOption
	switch {
	case opts.CredentialsJSON != "":
		cred = option.WithCredentialsJSON([]byte(opts.CredentialsJSON))
	case opts.CredentialsFile != "":
		cred = option.WithCredentialsFile(opts.CredentialsFile)
	default:
		return nil, ErrNoCredentials
	}
	srv, err := sheets.NewService(ctx, cred, option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("creating Sheets client: %w", err)
	}

	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 15
	}

	s := &SheetClient{
		service:       srv,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     opts.SheetName,
		limiter:       rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 5),
		maxRetries:    retries,
		baseBackoff:   time.Second,
		maxBackoff:    60 * time.Second,
	}
	if s.sheetName == "" {
		if err := s.resolveFirstSheet(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *SheetClient) SheetName() string {
	return s.sheetName
}

func (s *SheetClient) rangeA1(cells string) string {
	return "'" + strings.ReplaceAll(s.sheetName, "'", "''") + "'!" + cells
}

// isRateLimited reports whether the API rejected the call for quota reasons.
// A 403 is only retried when Google tags it as a rate limit; permission
// errors fail straight away.
func isRateLimited(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	switch gErr.Code {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		for _, item := range gErr.Errors {
			switch item.Reason {
			case "rateLimitExceeded", "userRateLimitExceeded":
				return true
			}
		}
		return strings.Contains(gErr.Message, "RESOURCE_EXHAUSTED") ||
			strings.Contains(gErr.Body, "RESOURCE_EXHAUSTED")
	}
	return false
}

// do runs fn under the client-side limiter, backing off exponentially while
// Google reports quota errors.
func (s *SheetClient) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if s.limiter != nil {
			if werr := s.limiter.Wait(ctx); werr != nil {
				return werr
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !isRateLimited(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * s.baseBackoff
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
		log.WithField("op", op).Warnf("Rate limited by Google Sheets API, retrying in %v...", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s: giving up after %d retries: %w", op, s.maxRetries, err)
}

func (s *SheetClient) resolveFirstSheet(ctx context.Context) error {
	var ss *sheets.Spreadsheet
	err := s.do(ctx, "get spreadsheet", func() (err error) {
		ss, err = s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	if len(ss.Sheets) == 0 {
		return fmt.Errorf("spreadsheet %s has no sheets", s.spreadsheetID)
	}
	props := ss.Sheets[0].Properties
	s.sheetName = props.Title
	id := props.SheetId
	s.sheetID = &id
	return nil
}

func (s *SheetClient) lookupSheetID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	var ss *sheets.Spreadsheet
	err := s.do(ctx, "get spreadsheet", func() (err error) {
		ss, err = s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties.Title == s.sheetName {
			id := sh.Properties.SheetId
			s.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", s.sheetName)
}

// EnsureSheetExistsWithHeader creates the tab if needed and writes the header
// row when the first row is empty.
func (s *SheetClient) EnsureSheetExistsWithHeader(ctx context.Context, header []interface{}) error {
	if _, err := s.lookupSheetID(ctx); err != nil {
		addSheetReq := &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: s.sheetName,
				},
			},
		}
		err = s.do(ctx, "add sheet", func() error {
			_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
				Requests: []*sheets.Request{addSheetReq},
			}).Context(ctx).Do()
			return err
		})
		if err != nil {
			return err
		}
		log.WithField("sheet", s.sheetName).Info("created sheet")
	}

	var resp *sheets.ValueRange
	err := s.do(ctx, "read header", func() (err error) {
		resp, err = s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeA1("1:1")).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	return s.UpdateRow(ctx, 1, header)
}

// GetRows reads every row of the sheet, header included.
func (s *SheetClient) GetRows(ctx context.Context) ([][]interface{}, error) {
	var resp *sheets.ValueRange
	err := s.do(ctx, "read rows", func() (err error) {
		resp, err = s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeA1("A:Z")).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("SERIAL_NUMBER").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *SheetClient) AppendRow(ctx context.Context, row []interface{}) error {
	return s.do(ctx, "append row", func() error {
		_, err := s.service.Spreadsheets.Values.Append(
			s.spreadsheetID,
			s.rangeA1("A:Z"),
			&sheets.ValueRange{Values: [][]interface{}{row}},
		).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
}

func (s *SheetClient) UpdateRow(ctx context.Context, rowIndex int, row []interface{}) error {
	return s.do(ctx, "update row", func() error {
		_, err := s.service.Spreadsheets.Values.Update(
			s.spreadsheetID,
			s.rangeA1(fmt.Sprintf("A%d", rowIndex)),
			&sheets.ValueRange{Values: [][]interface{}{row}},
		).ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
}

func (s *SheetClient) DeleteRow(ctx context.Context, rowIndex int) error {
	sheetID, err := s.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	req := &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(rowIndex - 1),
				EndIndex:   int64(rowIndex),
				// zero values are dropped from the request otherwise
				ForceSendFields: []string{"SheetId", "StartIndex"},
			},
		},
	}
	return s.do(ctx, "delete row", func() error {
		_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{req},
		}).Context(ctx).Do()
		return err
	})
}

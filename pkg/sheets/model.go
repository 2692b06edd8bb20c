package sheets

import "context"

// RowClient is the subset of the Sheets API the record store needs.
// Row indexes are 1-based sheet rows; row 1 holds the header.
type RowClient interface {
	EnsureSheetExistsWithHeader(ctx context.Context, header []interface{}) error
	GetRows(ctx context.Context) ([][]interface{}, error)
	AppendRow(ctx context.Context, row []interface{}) error
	UpdateRow(ctx context.Context, rowIndex int, row []interface{}) error
	DeleteRow(ctx context.Context, rowIndex int) error
}

// firstDataRow is the sheet row of record id 0.
const firstDataRow = 2

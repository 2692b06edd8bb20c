package sheets

import (
	"context"

	"camionetas/pkg/registro"
)

// Store keeps usage records in a Google Sheets tab. Record ids are data row
// positions, so sheet row = id + 2.
type Store struct {
	client RowClient
	layout registro.Layout
}

func NewStore(client RowClient, layout registro.Layout) *Store {
	return &Store{client: client, layout: layout}
}

// Init writes the header row to an empty sheet.
func (s *Store) Init(ctx context.Context) error {
	return s.client.EnsureSheetExistsWithHeader(ctx, s.layout.HeaderRow())
}

func (s *Store) List(ctx context.Context) (registro.Records, error) {
	rows, err := s.client.GetRows(ctx)
	if err != nil {
		return nil, err
	}
	out := registro.Records{}
	if len(rows) == 0 {
		return out, nil
	}
	cols := s.layout.Columns(rows[0])
	for i, row := range rows[1:] {
		out = append(out, s.layout.FromRow(cols, i, row))
	}
	return out, nil
}

func (s *Store) Append(ctx context.Context, rec registro.Record) error {
	return s.client.AppendRow(ctx, s.layout.ToRow(rec))
}

func (s *Store) Update(ctx context.Context, id int, rec registro.Record) error {
	if id < 0 {
		return registro.ErrNotFound
	}
	return s.client.UpdateRow(ctx, id+firstDataRow, s.layout.ToRow(rec))
}

func (s *Store) Delete(ctx context.Context, id int) error {
	if id < 0 {
		return registro.ErrNotFound
	}
	return s.client.DeleteRow(ctx, id+firstDataRow)
}

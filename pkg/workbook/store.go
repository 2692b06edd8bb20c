package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"camionetas/pkg/registro"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const DefaultSheetName = "Registros"

// Store keeps usage records in a local .xlsx file. Every mutation reads the
// whole file and writes it back in full.
type Store struct {
	path      string
	sheetName string
	layout    registro.Layout
	mu        sync.Mutex
}

func NewStore(path, sheetName string, layout registro.Layout) *Store {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Store{path: path, sheetName: sheetName, layout: layout}
}

func (s *Store) Path() string {
	return s.path
}

// load returns every record in the file. A missing file is an empty table.
func (s *Store) load() (registro.Records, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return registro.Records{}, nil
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	sheet := s.sheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}

	out := registro.Records{}
	if len(rows) == 0 {
		return out, nil
	}
	cols := s.layout.Columns(toCells(rows[0]))
	for i, row := range rows[1:] {
		out = append(out, s.layout.FromRow(cols, i, toCells(row)))
	}
	return out, nil
}

// save rewrites the whole file through a temp file and a rename.
func (s *Store) save(recs registro.Records) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), s.sheetName); err != nil {
		return err
	}
	if err := writeTable(f, s.sheetName, s.layout, recs); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registros-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	log.WithFields(log.Fields{"path": s.path, "rows": len(recs)}).Debug("workbook saved")
	return nil
}

func (s *Store) List(ctx context.Context) (registro.Records, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Append(ctx context.Context, rec registro.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(recs, rec))
}

func (s *Store) Update(ctx context.Context, id int, rec registro.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return err
	}
	if id < 0 || id >= len(recs) {
		return registro.ErrNotFound
	}
	recs[id] = rec
	return s.save(recs)
}

func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return err
	}
	if id < 0 || id >= len(recs) {
		return registro.ErrNotFound
	}
	return s.save(append(recs[:id], recs[id+1:]...))
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return cells
}

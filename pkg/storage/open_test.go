package storage

import (
	"context"
	"path/filepath"
	"testing"

	"camionetas/pkg/config"
	"camionetas/pkg/database"
	"camionetas/pkg/workbook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLocalBackends(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.XLSXPath = filepath.Join(dir, "uso.xlsx")
	cfg.Storage.SQLitePath = filepath.Join(dir, "uso.db")

	cfg.Storage.Backend = config.BackendXLSX
	store, closeFn, err := Open(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &workbook.Store{}, store)
	assert.NoError(t, closeFn())

	cfg.Storage.Backend = config.BackendSQLite
	store, closeFn, err = Open(context.Background(), &cfg)
	require.NoError(t, err)
	assert.IsType(t, &database.Store{}, store)
	assert.NoError(t, closeFn())
}

func TestOpenSheetsWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Sheets.SpreadsheetID = "abc"
	_, _, err := Open(context.Background(), &cfg)
	assert.Error(t, err)
}

func TestOpenUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "postgres"
	_, _, err := Open(context.Background(), &cfg)
	assert.Error(t, err)
}

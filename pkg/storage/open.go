package storage

import (
	"context"
	"fmt"

	"camionetas/pkg/config"
	"camionetas/pkg/database"
	"camionetas/pkg/registro"
	"camionetas/pkg/sheets"
	"camionetas/pkg/workbook"

	log "github.com/sirupsen/logrus"
)

// Open returns the store selected by cfg.Storage.Backend and a func that
// releases it.
func Open(ctx context.Context, cfg *config.Config) (registro.Store, func() error, error) {
	noop := func() error { return nil }
	layout := cfg.Layout()

	switch cfg.Storage.Backend {
	case config.BackendSheets:
		sc := cfg.Storage.Sheets
		client, err := sheets.NewSheetClient(ctx, sheets.Options{
			CredentialsFile:   sc.CredentialsFile,
			CredentialsJSON:   sc.CredentialsJSON,
			SpreadsheetID:     sc.SpreadsheetID,
			SheetName:         sc.SheetName,
			RequestsPerMinute: sc.RequestsPerMinute,
		})
		if err != nil {
			return nil, nil, err
		}
		store := sheets.NewStore(client, layout)
		if err := store.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("preparing sheet %s: %w", client.SheetName(), err)
		}
		log.WithFields(log.Fields{
			"spreadsheet": sc.SpreadsheetID,
			"sheet":       client.SheetName(),
		}).Info("using Google Sheets storage")
		return store, noop, nil

	case config.BackendXLSX:
		log.WithField("path", cfg.Storage.XLSXPath).Info("using local workbook storage")
		return workbook.NewStore(cfg.Storage.XLSXPath, "", layout), noop, nil

	case config.BackendSQLite:
		store, err := database.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("path", cfg.Storage.SQLitePath).Info("using SQLite storage")
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

package main

import (
	"fmt"
	"os"

	"camionetas/pkg/registro"
	"camionetas/pkg/workbook"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportGestor string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the consolidated workbook",
	Long:  `Writes every stored entry, or one gestor's entries, to an .xlsx file.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", workbook.ExportFilename, "output file")
	exportCmd.Flags().StringVar(&exportGestor, "gestor", "", "only export this gestor's entries")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, closeFn, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var recs registro.Records
	if exportGestor != "" {
		recs, err = svc.ListByGestor(cmd.Context(), exportGestor)
	} else {
		recs, err = svc.All(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("reading entries: %w", err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("no entries to export")
	}

	buf, err := workbook.Export(recs, cfg.Layout())
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	if err := os.WriteFile(exportOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", exportOut, err)
	}
	log.WithFields(log.Fields{"path": exportOut, "rows": len(recs)}).Info("export written")
	return nil
}

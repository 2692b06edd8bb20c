package main

import (
	"context"
	"errors"
	"fmt"

	"camionetas/pkg/registro"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var copyTo string

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy entries into another storage backend",
	Long: `Reads every entry from the configured backend and appends it to the --to backend.
Entries that already exist there for the same gestor, patente and day are skipped.`,
	RunE: runCopy,
}

func init() {
	copyCmd.Flags().StringVar(&copyTo, "to", "", "target backend (sheets, xlsx or sqlite)")
	_ = copyCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(copyCmd)
}

type copyResult struct {
	Copied  int
	Skipped int
	Invalid int
}

func runCopy(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	targetCfg := *cfg
	targetCfg.Storage.Backend = copyTo
	if err := targetCfg.Validate(); err != nil {
		return err
	}
	if targetCfg.Storage.Backend == cfg.Storage.Backend {
		return fmt.Errorf("source and target are both %s", cfg.Storage.Backend)
	}

	src, closeSrc, err := openService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	dst, closeDst, err := openService(cmd.Context(), &targetCfg)
	if err != nil {
		return err
	}
	defer closeDst()

	res, err := copyRecords(cmd.Context(), src, dst)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Copiados: %d, ya existentes: %d, inválidos: %d\n", res.Copied, res.Skipped, res.Invalid)
	return nil
}

func copyRecords(ctx context.Context, src, dst *registro.Service) (copyResult, error) {
	var res copyResult
	recs, err := src.All(ctx)
	if err != nil {
		return res, err
	}
	for _, rec := range recs {
		err := dst.Create(ctx, rec)
		switch {
		case err == nil:
			res.Copied++
		case errors.Is(err, registro.ErrDuplicate):
			res.Skipped++
		case isValidationError(err):
			log.WithFields(log.Fields{"id": rec.ID, "gestor": rec.Gestor}).Warnf("skipping invalid entry: %v", err)
			res.Invalid++
		default:
			return res, err
		}
	}
	return res, nil
}

func isValidationError(err error) bool {
	for _, target := range []error{
		registro.ErrIncomplete,
		registro.ErrUnknownGestor,
		registro.ErrUnknownPatente,
		registro.ErrInvalidRegion,
		registro.ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

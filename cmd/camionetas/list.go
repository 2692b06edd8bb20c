package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"camionetas/pkg/registro"

	"github.com/spf13/cobra"
)

var listGestor string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored usage entries",
	Long:  `Displays the stored usage entries, optionally only those of one gestor.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listGestor, "gestor", "", "only show this gestor's entries")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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
	if listGestor != "" {
		recs, err = svc.ListByGestor(cmd.Context(), listGestor)
	} else {
		recs, err = svc.All(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("listing entries: %w", err)
	}

	if len(recs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No hay registros para mostrar aún.")
		return nil
	}
	return printRecords(cmd.OutOrStdout(), cfg.Layout(), recs)
}

func printRecords(out io.Writer, layout registro.Layout, recs registro.Records) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tFecha\tGestor\tPatente\t%s\tRegión", layout.Header()[3])
	if layout.ProjectEnabled {
		fmt.Fprint(tw, "\tProyecto")
	}
	fmt.Fprintln(tw, "\tActividad")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d", r.ID, r.DateString(), r.Gestor, r.Patente, r.Site, r.Region)
		if layout.ProjectEnabled {
			fmt.Fprintf(tw, "\t%s", r.Project)
		}
		fmt.Fprintf(tw, "\t%s\n", r.Activity)
	}
	fmt.Fprintf(tw, "\nTotal: %d registro(s)\n", len(recs))
	return tw.Flush()
}

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"camionetas/pkg/registro"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(gestor, patente string, d int) registro.Record {
	return registro.Record{
		Date:     time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC),
		Gestor:   gestor,
		Patente:  patente,
		Site:     "ANT-9",
		Region:   2,
		Activity: "Traslado",
	}
}

func testRules() registro.Rules {
	return registro.Rules{
		Roster:  registro.DefaultRoster(),
		Layout:  registro.DefaultLayout(),
		MinDate: registro.DefaultMinDate,
	}
}

func TestCopyRecords(t *testing.T) {
	invalid := entry("Felipe Camus", "PTFP12", 2)
	invalid.Activity = ""

	src := registro.NewService(registro.NewMemoryStore(
		entry("Felipe Camus", "PTFP12", 1),
		entry("Rodrigo Aravena", "PTWB72", 1),
		invalid,
	), testRules())
	dstStore := registro.NewMemoryStore(entry("Felipe Camus", "PTFP12", 1))
	dst := registro.NewService(dstStore, testRules())

	res, err := copyRecords(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, copyResult{Copied: 1, Skipped: 1, Invalid: 1}, res)

	all, _ := dst.All(context.Background())
	assert.Len(t, all, 2)
}

func TestPrintRecords(t *testing.T) {
	var out bytes.Buffer
	layout := registro.Layout{SiteLabel: registro.SiteLabelSitio, ProjectEnabled: true}
	rec := entry("Francisco Barrios", "RVGV87", 5)
	rec.Project = "Norte"

	require.NoError(t, printRecords(&out, layout, registro.Records{rec}))
	s := out.String()
	assert.Contains(t, s, "Sitio")
	assert.Contains(t, s, "Proyecto")
	assert.Contains(t, s, "2025-09-05")
	assert.Contains(t, s, "Norte")
	assert.Contains(t, s, "Total: 1 registro(s)")
}

package registro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	assert.Equal(t,
		[]string{"Fecha", "Gestor", "Patente", "Código Subtel", "Región", "Actividad"},
		DefaultLayout().Header())

	l := Layout{SiteLabel: SiteLabelSitio, ProjectEnabled: true}
	assert.Equal(t,
		[]string{"Fecha", "Gestor", "Patente", "Sitio", "Región", "Proyecto", "Actividad"},
		l.Header())
}

func TestToRowFromRow(t *testing.T) {
	l := Layout{SiteLabel: SiteLabelSitio, ProjectEnabled: true}
	rec := Record{
		Date:     time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		Gestor:   "Ignacio Basaure",
		Patente:  "RSVD89",
		Site:     "V-118",
		Region:   5,
		Project:  "Fibra",
		Activity: "Visita técnica",
	}
	row := l.ToRow(rec)
	assert.Equal(t, []interface{}{"2025-08-02", "Ignacio Basaure", "RSVD89", "V-118", 5, "Fibra", "Visita técnica"}, row)

	got := l.FromRow(l.Columns(l.HeaderRow()), 3, row)
	rec.ID = 3
	assert.Equal(t, rec, got)
}

func TestFromRowOtherVariantHeader(t *testing.T) {
	// a sheet written with "Código Subtel" read by the "Sitio" variant
	l := Layout{SiteLabel: SiteLabelSitio}
	header := []interface{}{"Fecha", "Gestor", "Patente", "Código Subtel", "Región", "Actividad"}
	row := []interface{}{"14/07/2025", "Felipe Camus", "PTFP12", "RM-0042", float64(13)}

	got := l.FromRow(l.Columns(header), 0, row)
	assert.Equal(t, "RM-0042", got.Site)
	assert.Equal(t, 13, got.Region)
	assert.Equal(t, "", got.Activity)
	assert.Equal(t, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), got.Date)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		in   interface{}
		want time.Time
	}{
		{"2025-06-03", want},
		{"2025-06-03 00:00:00", want},
		{"03/06/2025", want},
		{"3/6/2025", want},
		{float64(45811), want},
		{"45811", want},
		{time.Date(2025, 6, 3, 15, 4, 0, 0, time.Local), want},
		{"", time.Time{}},
		{nil, time.Time{}},
		{"notadate", time.Time{}},
		{float64(1e12), time.Time{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDate(tt.in), "ParseDate(%v)", tt.in)
	}
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "Sin fecha", Record{}.DateString())
	assert.Equal(t, "2025-06-03", Record{Date: time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)}.DateString())
}

func TestParseRegion(t *testing.T) {
	assert.Equal(t, 13, parseRegion("13"))
	assert.Equal(t, 5, parseRegion(float64(5)))
	assert.Equal(t, 7, parseRegion("7.0"))
	assert.Equal(t, 0, parseRegion("RM"))
	assert.Equal(t, 0, parseRegion(nil))
	assert.Equal(t, 0, parseRegion(float64(1e20)))
	assert.Equal(t, 0, parseRegion(float64(-1e20)))
	assert.Equal(t, 0, parseRegion("1e20"))
}

func TestFromRowNumericSite(t *testing.T) {
	l := DefaultLayout()
	cols := l.Columns([]interface{}{"Fecha", "Gestor", "Patente", "Código Subtel", "Región", "Actividad"})
	got := l.FromRow(cols, 0, []interface{}{float64(45811), "Felipe Camus", "PTFP12", float64(1234567), float64(13), float64(2.5)})
	assert.Equal(t, "1234567", got.Site)
	assert.Equal(t, "2.5", got.Activity)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), got.Date)
}

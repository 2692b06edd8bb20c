package registro

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	ColumnDate     = "Fecha"
	ColumnGestor   = "Gestor"
	ColumnPatente  = "Patente"
	ColumnRegion   = "Región"
	ColumnProject  = "Proyecto"
	ColumnActivity = "Actividad"

	SiteLabelSubtel = "Código Subtel"
	SiteLabelSitio  = "Sitio"
)

// Layout describes the column set of one deployment variant.
type Layout struct {
	SiteLabel      string
	ProjectEnabled bool
}

func DefaultLayout() Layout {
	return Layout{SiteLabel: SiteLabelSubtel}
}

func (l Layout) siteLabel() string {
	if l.SiteLabel == "" {
		return SiteLabelSubtel
	}
	return l.SiteLabel
}

// Header returns the column names in storage order.
func (l Layout) Header() []string {
	h := []string{ColumnDate, ColumnGestor, ColumnPatente, l.siteLabel(), ColumnRegion}
	if l.ProjectEnabled {
		h = append(h, ColumnProject)
	}
	return append(h, ColumnActivity)
}

func (l Layout) HeaderRow() []interface{} {
	h := l.Header()
	row := make([]interface{}, len(h))
	for i, c := range h {
		row[i] = c
	}
	return row
}

// ToRow renders a record in header order.
func (l Layout) ToRow(r Record) []interface{} {
	row := []interface{}{
		r.Date.Format(DateLayout),
		r.Gestor,
		r.Patente,
		r.Site,
		r.Region,
	}
	if l.ProjectEnabled {
		row = append(row, r.Project)
	}
	return append(row, r.Activity)
}

// Columns maps header names to positions. Both site labels resolve to the
// site column so a sheet written by the other variant still decodes.
type Columns map[string]int

func (l Layout) Columns(header []interface{}) Columns {
	cols := Columns{}
	for i, h := range header {
		name := strings.TrimSpace(fmt.Sprint(h))
		switch name {
		case SiteLabelSubtel, SiteLabelSitio:
			if _, ok := cols[l.siteLabel()]; !ok {
				cols[l.siteLabel()] = i
			}
		default:
			cols[name] = i
		}
	}
	return cols
}

// FromRow decodes a stored row into a record with the given id.
func (l Layout) FromRow(cols Columns, id int, row []interface{}) Record {
	get := func(name string) interface{} {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return nil
		}
		return row[i]
	}
	str := func(name string) string {
		return cellString(get(name))
	}

	return Record{
		ID:       id,
		Date:     ParseDate(get(ColumnDate)),
		Gestor:   str(ColumnGestor),
		Patente:  str(ColumnPatente),
		Site:     str(l.siteLabel()),
		Region:   parseRegion(get(ColumnRegion)),
		Project:  str(ColumnProject),
		Activity: str(ColumnActivity),
	}
}

// cellString renders a cell as text. Numbers are written out in full so a
// numeric site code does not come back in exponent form.
func cellString(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// sheetsEpoch is day zero for spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate accepts ISO dates, dd/mm/yyyy, date-times and spreadsheet
// serial numbers. Anything else yields the zero time.
func ParseDate(v interface{}) time.Time {
	switch d := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	case float64:
		return serialDate(d)
	case int:
		return serialDate(float64(d))
	case int64:
		return serialDate(float64(d))
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "02/01/2006", "2/1/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialDate(f)
	}
	return time.Time{}
}

// maxSerialDate is 9999-12-31.
const maxSerialDate = 2958465

func serialDate(days float64) time.Time {
	if math.IsNaN(days) || days <= 0 || days > maxSerialDate {
		return time.Time{}
	}
	return sheetsEpoch.AddDate(0, 0, int(math.Floor(days)))
}

func parseRegion(v interface{}) int {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return regionFromFloat(n)
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return regionFromFloat(f)
	}
	return 0
}

// regionFromFloat truncates f. Values outside the int32 range decode as 0,
// which validation rejects.
func regionFromFloat(f float64) int {
	if math.IsNaN(f) || f >= math.MaxInt32 || f <= math.MinInt32 {
		return 0
	}
	return int(f)
}

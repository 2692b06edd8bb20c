package registro

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIncomplete     = errors.New("all fields must be filled in")
	ErrUnknownGestor  = errors.New("unknown gestor")
	ErrUnknownPatente = errors.New("unknown patente")
	ErrInvalidRegion  = errors.New("region must be a positive number")
	ErrInvalidDate    = errors.New("date is out of range")
	ErrDuplicate      = errors.New("a record already exists for this gestor and patente on that day")
	ErrNotFound       = errors.New("record not found")
)

// DefaultMinDate is the earliest date the form accepts.
var DefaultMinDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// Rules bundles everything Validate checks a record against.
type Rules struct {
	Roster  Roster
	Layout  Layout
	MinDate time.Time
}

// Normalize trims the free-text fields in place.
func (r *Record) Normalize() {
	r.Gestor = strings.TrimSpace(r.Gestor)
	r.Patente = strings.TrimSpace(r.Patente)
	r.Site = strings.TrimSpace(r.Site)
	r.Project = strings.TrimSpace(r.Project)
	r.Activity = strings.TrimSpace(r.Activity)
}

func (v Rules) Validate(r Record) error {
	if r.Site == "" || r.Activity == "" {
		return ErrIncomplete
	}
	if v.Layout.ProjectEnabled && r.Project == "" {
		return ErrIncomplete
	}
	if !v.Roster.HasGestor(r.Gestor) {
		return fmt.Errorf("%w: %q", ErrUnknownGestor, r.Gestor)
	}
	if !v.Roster.HasPatente(r.Patente) {
		return fmt.Errorf("%w: %q", ErrUnknownPatente, r.Patente)
	}
	if r.Region < 1 {
		return ErrInvalidRegion
	}
	if r.Date.IsZero() || (!v.MinDate.IsZero() && r.Date.Before(v.MinDate)) {
		return fmt.Errorf("%w: %s", ErrInvalidDate, r.DateString())
	}
	return nil
}

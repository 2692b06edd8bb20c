package registro

import (
	"context"
	"time"
)

// DateLayout is how dates are written to every backing store.
const DateLayout = "2006-01-02"

var (
	// Do not reorder these, the form selectors follow this order
	DefaultGestores = []string{
		"Hernán Aguilera",
		"Rodrigo Aravena",
		"Ignacio Basaure",
		"Francisco Barrios",
		"Felipe Camus",
		"Rodrigo Chávez",
		"Rodrigo Escandón",
		"Juan Pablo Molina",
		"Marilin López",
		"Francisco Parra",
	}
	DefaultPatentes = []string{
		"PBFW28",
		"PTFP12",
		"PTFP13",
		"PTFP21",
		"PTWB64",
		"PTWB72",
		"RSVD89",
		"RVGV85",
		"RVGV87",
	}
)

// Record is one vehicle usage entry.
type Record struct {
	ID       int       `json:"id"`
	Date     time.Time `json:"date"`
	Gestor   string    `json:"gestor"`
	Patente  string    `json:"patente"`
	Site     string    `json:"site"`
	Region   int       `json:"region"`
	Project  string    `json:"project,omitempty"`
	Activity string    `json:"activity"`
}

type Records []Record

// DateString returns the date as stored, or "Sin fecha" when it could not be parsed.
func (r Record) DateString() string {
	if r.Date.IsZero() {
		return "Sin fecha"
	}
	return r.Date.Format(DateLayout)
}

// SameDay reports whether both times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Store is a backing table of usage records. IDs are assigned by the store
// and are only stable until the next Delete.
type Store interface {
	List(ctx context.Context) (Records, error)
	Append(ctx context.Context, rec Record) error
	Update(ctx context.Context, id int, rec Record) error
	Delete(ctx context.Context, id int) error
}

// Roster holds the allow-lists for the form selectors.
type Roster struct {
	Gestores []string
	Patentes []string
}

func DefaultRoster() Roster {
	return Roster{
		Gestores: append([]string(nil), DefaultGestores...),
		Patentes: append([]string(nil), DefaultPatentes...),
	}
}

func (r Roster) HasGestor(name string) bool {
	return contains(r.Gestores, name)
}

func (r Roster) HasPatente(plate string) bool {
	return contains(r.Patentes, plate)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ByGestor filters the table down to one person's entries.
func (rs Records) ByGestor(gestor string) Records {
	out := Records{}
	for _, r := range rs {
		if r.Gestor == gestor {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the record with the given store id.
func (rs Records) Find(id int) (Record, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Exists is the duplicate guard: is there already an entry for this gestor
// and patente on the same day? exceptID excludes one row, use -1 for none.
func (rs Records) Exists(date time.Time, gestor, patente string, exceptID int) bool {
	for _, r := range rs {
		if r.ID == exceptID {
			continue
		}
		if r.Date.IsZero() {
			continue
		}
		if SameDay(r.Date, date) && r.Gestor == gestor && r.Patente == patente {
			return true
		}
	}
	return false
}

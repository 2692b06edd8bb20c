package registro

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validRecord() Record {
	return Record{
		Date:     day(2025, 7, 14),
		Gestor:   "Felipe Camus",
		Patente:  "PTFP12",
		Site:     "RM-0042",
		Region:   13,
		Activity: "Mantención preventiva",
	}
}

func newTestService(store Store) *Service {
	return NewService(store, Rules{
		Roster:  DefaultRoster(),
		Layout:  DefaultLayout(),
		MinDate: DefaultMinDate,
	})
}

func TestValidate(t *testing.T) {
	rules := Rules{Roster: DefaultRoster(), Layout: DefaultLayout(), MinDate: DefaultMinDate}
	tests := []struct {
		name   string
		modify func(r *Record)
		want   error
	}{
		{"valid", func(r *Record) {}, nil},
		{"blank site", func(r *Record) { r.Site = "" }, ErrIncomplete},
		{"blank activity", func(r *Record) { r.Activity = "" }, ErrIncomplete},
		{"unknown gestor", func(r *Record) { r.Gestor = "Nadie" }, ErrUnknownGestor},
		{"unknown patente", func(r *Record) { r.Patente = "XX0000" }, ErrUnknownPatente},
		{"zero region", func(r *Record) { r.Region = 0 }, ErrInvalidRegion},
		{"before min date", func(r *Record) { r.Date = day(2025, 5, 31) }, ErrInvalidDate},
		{"zero date", func(r *Record) { r.Date = time.Time{} }, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.modify(&r)
			err := rules.Validate(r)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidateProjectVariant(t *testing.T) {
	rules := Rules{
		Roster: DefaultRoster(),
		Layout: Layout{SiteLabel: SiteLabelSitio, ProjectEnabled: true},
	}
	r := validRecord()
	assert.ErrorIs(t, rules.Validate(r), ErrIncomplete)

	r.Project = "Proyecto Norte"
	assert.NoError(t, rules.Validate(r))
}

func TestCreate(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	rec := validRecord()
	rec.Site = "  RM-0042  "
	require.NoError(t, svc.Create(ctx, rec))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "RM-0042", all[0].Site)
}

func TestCreateRejectsSameDayDuplicate(t *testing.T) {
	store := NewMemoryStore(validRecord())
	svc := newTestService(store)
	ctx := context.Background()

	err := svc.Create(ctx, validRecord())
	assert.ErrorIs(t, err, ErrDuplicate)

	// another plate the same day is fine
	other := validRecord()
	other.Patente = "PTFP13"
	assert.NoError(t, svc.Create(ctx, other))

	// same plate the next day is fine
	next := validRecord()
	next.Date = next.Date.AddDate(0, 0, 1)
	assert.NoError(t, svc.Create(ctx, next))

	all, _ := svc.All(ctx)
	assert.Len(t, all, 3)
}

func TestCreateDoesNotWriteInvalid(t *testing.T) {
	store := NewMemoryStore()
	svc := newTestService(store)

	rec := validRecord()
	rec.Activity = "   "
	assert.ErrorIs(t, svc.Create(context.Background(), rec), ErrIncomplete)
	assert.NotContains(t, store.Calls, "Append")
}

func TestCreateListError(t *testing.T) {
	store := NewMemoryStore()
	store.ListErr = errors.New("quota exceeded")
	svc := newTestService(store)

	err := svc.Create(context.Background(), validRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUpdate(t *testing.T) {
	first := validRecord()
	second := validRecord()
	second.Patente = "PTFP13"
	store := NewMemoryStore(first, second)
	svc := newTestService(store)
	ctx := context.Background()

	edit := second
	edit.Activity = "Traslado de equipos"
	require.NoError(t, svc.Update(ctx, 1, edit))

	all, _ := svc.All(ctx)
	assert.Equal(t, "Traslado de equipos", all[1].Activity)

	// editing a row onto itself is not a duplicate
	require.NoError(t, svc.Update(ctx, 1, edit))

	// moving the second row onto the first row's plate is
	edit.Patente = first.Patente
	assert.ErrorIs(t, svc.Update(ctx, 1, edit), ErrDuplicate)
}

func TestUpdateWrongGestor(t *testing.T) {
	store := NewMemoryStore(validRecord())
	svc := newTestService(store)

	edit := validRecord()
	edit.Gestor = "Marilin López"
	assert.ErrorIs(t, svc.Update(context.Background(), 0, edit), ErrNotFound)
	assert.ErrorIs(t, svc.Update(context.Background(), 7, validRecord()), ErrNotFound)
}

func TestDelete(t *testing.T) {
	other := validRecord()
	other.Gestor = "Francisco Parra"
	store := NewMemoryStore(validRecord(), other)
	svc := newTestService(store)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, 0, "Francisco Parra"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 0, "Felipe Camus"))

	all, _ := svc.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Francisco Parra", all[0].Gestor)
	assert.Equal(t, 0, all[0].ID)
}

func TestListByGestor(t *testing.T) {
	a := validRecord()
	b := validRecord()
	b.Gestor = "Marilin López"
	c := validRecord()
	c.Patente = "RVGV87"
	svc := newTestService(NewMemoryStore(a, b, c))

	mine, err := svc.ListByGestor(context.Background(), "Felipe Camus")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListByGestor(context.Background(), "Hernán Aguilera")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExistsIgnoresUnparsedDates(t *testing.T) {
	rows := Records{{ID: 0, Gestor: "Felipe Camus", Patente: "PTFP12"}}
	assert.False(t, rows.Exists(time.Time{}, "Felipe Camus", "PTFP12", -1))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 7, 14, 8, 0, 0, 0, time.UTC)
	b := time.Date(2025, 7, 14, 23, 59, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.Add(time.Minute)))
}

package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"camionetas/pkg/registro"
	"camionetas/pkg/workbook"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// nowFunc is swapped out in tests.
var nowFunc = time.Now

const (
	msgSaved      = "✅ Registro guardado correctamente."
	msgUpdated    = "✅ Registro actualizado correctamente."
	msgDeleted    = "🗑️ Registro eliminado."
	msgIncomplete = "❌ Todos los campos deben estar completos."
	msgDuplicate  = "❌ Ya existe un registro para este día asociado al Gestor y Patente."
	msgUnknown    = "❌ Gestor o patente no válidos."
	msgRegion     = "❌ La región debe ser un número mayor o igual a 1."
	msgNotFound   = "❌ El registro ya no existe. Recarga la página."
	msgFailed     = "❌ No se pudo guardar el registro. Inténtalo nuevamente."
	msgNoExport   = "No hay registros para descargar."
	msgNeedCode   = "⚠️ Ingresa el código para habilitar la descarga."
	msgBadCode    = "⚠️ Código incorrecto."
)

type Options struct {
	Service  *registro.Service
	Gate     *ExportGate
	Location *time.Location
	Title    string
	LogoPath string
}

type Handler struct {
	svc      *registro.Service
	gate     *ExportGate
	loc      *time.Location
	title    string
	logoPath string
	tmpl     *template.Template
	policy   *bluemonday.Policy
}

func NewHandler(opts Options) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		svc:      opts.Service,
		gate:     opts.Gate,
		loc:      loc,
		title:    opts.Title,
		logoPath: opts.LogoPath,
		tmpl:     tmpl,
		policy:   bluemonday.StrictPolicy(),
	}, nil
}

type flash struct {
	Kind string
	Text string
}

type formValues struct {
	Date     string
	Gestor   string
	Patente  string
	Site     string
	Region   string
	Project  string
	Activity string
}

type pageData struct {
	Title          string
	HasLogo        bool
	SiteLabel      string
	ProjectEnabled bool
	Gestores       []string
	Patentes       []string
	Today          string
	MinDate        string
	Form           formValues
	Flash          *flash
	Selected       string
	Records        registro.Records
	Rows           []recordRow
	ListError      bool
	ExportFlash    *flash
	Edit           *editState
}

// recordRow is one listed record plus the values its edit form starts with.
type recordRow struct {
	registro.Record
	Form    formValues
	Editing bool
}

// editState holds a rejected edit so the form shows the user's input again.
type editState struct {
	ID   int
	Form formValues
}

func recordForm(rec registro.Record) formValues {
	fv := formValues{
		Gestor:   rec.Gestor,
		Patente:  rec.Patente,
		Site:     rec.Site,
		Region:   strconv.Itoa(rec.Region),
		Project:  rec.Project,
		Activity: rec.Activity,
	}
	if !rec.Date.IsZero() {
		fv.Date = rec.DateString()
	}
	return fv
}

func (h *Handler) today() string {
	return nowFunc().In(h.loc).Format(registro.DateLayout)
}

func (h *Handler) newPage(selected string) *pageData {
	rules := h.svc.Rules()
	p := &pageData{
		Title:          h.title,
		HasLogo:        h.logoPath != "",
		SiteLabel:      rules.Layout.Header()[3],
		ProjectEnabled: rules.Layout.ProjectEnabled,
		Gestores:       rules.Roster.Gestores,
		Patentes:       rules.Roster.Patentes,
		Today:          h.today(),
		Selected:       selected,
	}
	if !rules.MinDate.IsZero() {
		p.MinDate = rules.MinDate.Format(registro.DateLayout)
	}
	if p.Selected == "" || !rules.Roster.HasGestor(p.Selected) {
		if len(p.Gestores) > 0 {
			p.Selected = p.Gestores[0]
		}
	}
	p.Form = formValues{Date: p.Today, Region: "1"}
	return p
}

// render loads the selected gestor's records and writes the page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p *pageData) {
	recs, err := h.svc.ListByGestor(r.Context(), p.Selected)
	if err != nil {
		log.WithError(err).Error("listing records")
		p.ListError = true
	}
	p.Records = recs
	p.Rows = make([]recordRow, 0, len(recs))
	for _, rec := range recs {
		row := recordRow{Record: rec, Form: recordForm(rec)}
		if p.Edit != nil && p.Edit.ID == rec.ID {
			row.Form = p.Edit.Form
			row.Editing = true
		}
		p.Rows = append(p.Rows, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "index.html", p); err != nil {
		log.WithError(err).Error("rendering page")
	}
}

func (h *Handler) getIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.newPage(r.URL.Query().Get("gestor")))
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, http.StatusOK, []byte(`{"status":"ok"}`))
}

func (h *Handler) getLogo(w http.ResponseWriter, r *http.Request) {
	if h.logoPath == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, h.logoPath)
}

// sanitize strips markup from free text. bluemonday escapes entities, which
// would end up literally in the spreadsheet, so they are unescaped again.
func (h *Handler) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(h.policy.Sanitize(s)))
}

func (h *Handler) readForm(r *http.Request) (registro.Record, formValues) {
	fv := formValues{
		Date:     strings.TrimSpace(r.PostFormValue("fecha")),
		Gestor:   strings.TrimSpace(r.PostFormValue("gestor")),
		Patente:  strings.TrimSpace(r.PostFormValue("patente")),
		Site:     h.sanitize(r.PostFormValue("sitio")),
		Region:   strings.TrimSpace(r.PostFormValue("region")),
		Project:  h.sanitize(r.PostFormValue("proyecto")),
		Activity: h.sanitize(r.PostFormValue("actividad")),
	}
	rec := registro.Record{
		Gestor:   fv.Gestor,
		Patente:  fv.Patente,
		Site:     fv.Site,
		Project:  fv.Project,
		Activity: fv.Activity,
	}
	if d, err := time.Parse(registro.DateLayout, fv.Date); err == nil {
		rec.Date = d
	}
	if n, err := strconv.Atoi(fv.Region); err == nil {
		rec.Region = n
	}
	if !h.svc.Rules().Layout.ProjectEnabled {
		rec.Project = ""
	}
	return rec, fv
}

// errorFlash maps service errors to a status code and a message for the form.
func (h *Handler) errorFlash(err error) (int, *flash) {
	switch {
	case errors.Is(err, registro.ErrIncomplete):
		return http.StatusUnprocessableEntity, &flash{"error", msgIncomplete}
	case errors.Is(err, registro.ErrDuplicate):
		return http.StatusConflict, &flash{"error", msgDuplicate}
	case errors.Is(err, registro.ErrUnknownGestor), errors.Is(err, registro.ErrUnknownPatente):
		return http.StatusUnprocessableEntity, &flash{"error", msgUnknown}
	case errors.Is(err, registro.ErrInvalidRegion):
		return http.StatusUnprocessableEntity, &flash{"error", msgRegion}
	case errors.Is(err, registro.ErrInvalidDate):
		text := "❌ La fecha no es válida."
		if minDate := h.svc.Rules().MinDate; !minDate.IsZero() {
			text = fmt.Sprintf("❌ La fecha debe ser igual o posterior al %s.", minDate.Format(registro.DateLayout))
		}
		return http.StatusUnprocessableEntity, &flash{"error", text}
	case errors.Is(err, registro.ErrNotFound):
		return http.StatusNotFound, &flash{"error", msgNotFound}
	}
	log.WithError(err).Error("saving record")
	return http.StatusInternalServerError, &flash{"error", msgFailed}
}

func (h *Handler) postRecord(w http.ResponseWriter, r *http.Request) {
	rec, fv := h.readForm(r)
	p := h.newPage(rec.Gestor)

	if err := h.svc.Create(r.Context(), rec); err != nil {
		status, f := h.errorFlash(err)
		p.Form = fv
		p.Flash = f
		h.render(w, r, status, p)
		return
	}
	p.Flash = &flash{"success", msgSaved}
	h.render(w, r, http.StatusCreated, p)
}

func recordID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id >= 0
}

func (h *Handler) postEdit(w http.ResponseWriter, r *http.Request) {
	rec, fv := h.readForm(r)
	p := h.newPage(rec.Gestor)

	id, ok := recordID(r)
	if !ok {
		p.Flash = &flash{"error", msgNotFound}
		h.render(w, r, http.StatusNotFound, p)
		return
	}
	if err := h.svc.Update(r.Context(), id, rec); err != nil {
		status, f := h.errorFlash(err)
		f.Text = fmt.Sprintf("%s (registro #%d)", f.Text, id+1)
		p.Flash = f
		if !errors.Is(err, registro.ErrNotFound) {
			p.Edit = &editState{ID: id, Form: fv}
		}
		h.render(w, r, status, p)
		return
	}
	p.Flash = &flash{"success", msgUpdated}
	h.render(w, r, http.StatusOK, p)
}

func (h *Handler) postDelete(w http.ResponseWriter, r *http.Request) {
	gestor := strings.TrimSpace(r.PostFormValue("gestor"))
	p := h.newPage(gestor)

	id, ok := recordID(r)
	if !ok {
		p.Flash = &flash{"error", msgNotFound}
		h.render(w, r, http.StatusNotFound, p)
		return
	}
	if err := h.svc.Delete(r.Context(), id, gestor); err != nil {
		status, f := h.errorFlash(err)
		p.Flash = f
		h.render(w, r, status, p)
		return
	}
	p.Flash = &flash{"success", msgDeleted}
	h.render(w, r, http.StatusOK, p)
}

// postExport serves the consolidated workbook when the code matches. With a
// gestor only that person's rows are exported, otherwise the whole table.
func (h *Handler) postExport(w http.ResponseWriter, r *http.Request) {
	code := r.PostFormValue("codigo")
	gestor := strings.TrimSpace(r.PostFormValue("gestor"))
	p := h.newPage(gestor)

	if code == "" {
		p.ExportFlash = &flash{"warning", msgNeedCode}
		h.render(w, r, http.StatusUnauthorized, p)
		return
	}
	if !h.gate.Allow(code) {
		log.WithField("remote", r.RemoteAddr).Warn("export refused: wrong code")
		p.ExportFlash = &flash{"warning", msgBadCode}
		h.render(w, r, http.StatusForbidden, p)
		return
	}

	var (
		recs registro.Records
		err  error
	)
	if gestor != "" {
		recs, err = h.svc.ListByGestor(r.Context(), gestor)
	} else {
		recs, err = h.svc.All(r.Context())
	}
	if err != nil {
		log.WithError(err).Error("reading records for export")
		p.ExportFlash = &flash{"error", msgFailed}
		h.render(w, r, http.StatusInternalServerError, p)
		return
	}
	if len(recs) == 0 {
		p.ExportFlash = &flash{"info", msgNoExport}
		h.render(w, r, http.StatusOK, p)
		return
	}

	buf, err := workbook.Export(recs, h.svc.Rules().Layout)
	if err != nil {
		log.WithError(err).Error("building export")
		p.ExportFlash = &flash{"error", msgFailed}
		h.render(w, r, http.StatusInternalServerError, p)
		return
	}

	log.WithFields(log.Fields{"gestor": gestor, "rows": len(recs)}).Info("export downloaded")
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, workbook.ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type recordsResponse struct {
	Gestor  string           `json:"gestor,omitempty"`
	Count   int              `json:"count"`
	Records registro.Records `json:"records"`
}

func (h *Handler) getRecordsJSON(w http.ResponseWriter, r *http.Request) {
	gestor := r.URL.Query().Get("gestor")
	var (
		recs registro.Records
		err  error
	)
	if gestor != "" {
		recs, err = h.svc.ListByGestor(r.Context(), gestor)
	} else {
		recs, err = h.svc.All(r.Context())
	}
	if err != nil {
		log.WithError(err).Error("listing records")
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"could not read records"}`))
		return
	}

	body, err := json.Marshal(recordsResponse{Gestor: gestor, Count: len(recs), Records: recs})
	if err != nil {
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"could not encode records"}`))
		return
	}
	sendResponse(w, http.StatusOK, body)
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

package consulta

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appconsulta "exemplo.com.br/creditos/internal/application/consulta"
	"exemplo.com.br/creditos/internal/core/credit"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
)

const (
	msgInProgress = "Uma consulta já está em andamento. Aguarde o resultado."
	msgNoExport   = "Não há créditos para exportar"
	msgBadBody    = "Corpo da requisição inválido"
)

//go:embed templates/page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Config wires the consultation page.
type Config struct {
	Session  SessionConfig
	Query    appconsulta.Options
	PageSize int
	// Location renders the "consultado em" timestamp. Nil means time.Local.
	Location *time.Location
	// SubmitMiddleware wraps the routes that dispatch a query, typically a rate limiter.
	SubmitMiddleware func(http.Handler) http.Handler
}

// Handler serves the consultation page and its JSON twin.
type Handler struct {
	sessions *SessionStore
	log      *slog.Logger
	now      func() time.Time
	loc      *time.Location
	submitMW func(http.Handler) http.Handler
}

// NewHandler creates the handler. Every new browser session gets its own
// form, orchestrator and table bound to service.
func NewHandler(service credit.QueryService, cfg Config, log *slog.Logger) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SubmitMiddleware == nil {
		cfg.SubmitMiddleware = func(next http.Handler) http.Handler { return next }
	}

	factory := func(id string) *Session {
		return &Session{
			ID:           id,
			Form:         appconsulta.NewForm(),
			Orchestrator: appconsulta.NewOrchestrator(service, log.With("session_id", id), cfg.Query),
			Table:        appconsulta.NewTable(cfg.PageSize),
		}
	}

	return &Handler{
		sessions: NewSessionStore(cfg.Session, factory, log),
		log:      log,
		now:      time.Now,
		loc:      cfg.Location,
		submitMW: cfg.SubmitMiddleware,
	}
}

// Routes mounts the page, the form actions and the JSON API.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Get("/", h.Index)
		r.Post("/consulta/limpar", h.Clear)
		r.Get("/consulta/exportar.xlsx", h.Export)
		r.Get("/api/consulta", h.APIState)

		r.Group(func(r chi.Router) {
			r.Use(h.submitMW)
			r.Post("/consulta", h.Submit)
			r.Post("/consulta/repetir", h.Retry)
			r.Post("/api/consulta", h.APISubmit)
		})
	})
}

// StartJanitor expires idle sessions until ctx is done.
func (h *Handler) StartJanitor(ctx context.Context, interval time.Duration) {
	h.sessions.StartJanitor(ctx, interval)
}

// Index handles GET /. Query params page, size, sort and dir drive the table.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	applyTableParams(sess, r.URL.Query())
	h.render(w, http.StatusOK, buildPageView(sess, h.now(), h.loc))
}

// Submit handles POST /consulta. The query runs to completion before the
// redirect, so the page that follows already shows the outcome.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, msgBadBody, nil, h.log)
		return
	}

	sess.Form.Set(credit.QueryKind(r.PostForm.Get(appconsulta.FieldKind)), r.PostForm.Get(appconsulta.FieldValue))
	req, result, err := sess.Form.Submit()
	switch {
	case errors.Is(err, appconsulta.ErrInvalidForm):
		view := buildPageView(sess, h.now(), h.loc)
		view.setFieldErrors(result)
		h.render(w, http.StatusUnprocessableEntity, view)
		return
	case errors.Is(err, appconsulta.ErrSubmitting):
		view := buildPageView(sess, h.now(), h.loc)
		view.Notice = msgInProgress
		h.render(w, http.StatusConflict, view)
		return
	}

	h.dispatch(r.Context(), sess, req)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Retry handles POST /consulta/repetir.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	if err := sess.Form.Begin(); err != nil {
		view := buildPageView(sess, h.now(), h.loc)
		view.Notice = msgInProgress
		h.render(w, http.StatusConflict, view)
		return
	}

	h.retry(r.Context(), sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Clear handles POST /consulta/limpar: the form and the results start over.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	sess.Orchestrator.Reset()
	sess.Form.Reset()
	sess.Table.Bind(sess.Orchestrator.State())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Export handles GET /consulta/exportar.xlsx with every record of the
// current result, in the order the table shows them.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	sess.Table.Bind(sess.Orchestrator.State())
	records := sess.Table.All()
	if len(records) == 0 {
		httperrors.WriteError(w, http.StatusNotFound, msgNoExport, nil, h.log)
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := writeWorkbook(&buf, records, now); err != nil {
		h.log.Error("Failed to export credits",
			"correlation_id", ctxutil.GetCorrelationID(r.Context()),
			"records", len(records),
			"error", err,
		)
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.MsgInternal, nil, h.log)
		return
	}

	w.Header().Set("Content-Type", exportContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename(now.In(h.loc))+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("Failed to write export", "error", err)
	}
}

type submitRequest struct {
	Kind  credit.QueryKind `json:"tipoConsulta"`
	Value string           `json:"valor"`
}

// APIState handles GET /api/consulta.
func (h *Handler) APIState(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())
	applyTableParams(sess, r.URL.Query())
	httperrors.WriteJSON(w, http.StatusOK, buildAPIView(sess, h.now()), h.log)
}

// APISubmit handles POST /api/consulta and answers with the resolved state.
func (h *Handler) APISubmit(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context())

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, msgBadBody, []string{err.Error()}, h.log)
		return
	}

	sess.Form.Set(body.Kind, body.Value)
	req, result, err := sess.Form.Submit()
	switch {
	case errors.Is(err, appconsulta.ErrInvalidForm):
		view := buildAPIView(sess, h.now())
		view.Validation = &result
		httperrors.WriteJSON(w, http.StatusUnprocessableEntity, view, h.log)
		return
	case errors.Is(err, appconsulta.ErrSubmitting):
		httperrors.WriteError(w, http.StatusConflict, msgInProgress, nil, h.log)
		return
	}

	h.dispatch(r.Context(), sess, req)
	httperrors.WriteJSON(w, http.StatusOK, buildAPIView(sess, h.now()), h.log)
}

func (h *Handler) dispatch(ctx context.Context, sess *Session, req credit.QueryRequest) {
	defer sess.Form.Release()
	state := sess.Orchestrator.Submit(ctx, req)
	sess.Table.Bind(state)
}

func (h *Handler) retry(ctx context.Context, sess *Session) {
	defer sess.Form.Release()
	if _, err := sess.Orchestrator.Retry(ctx); err != nil && !errors.Is(err, appconsulta.ErrNothingToRetry) {
		h.log.Error("Retry failed", "session_id", sess.ID, "error", err)
	}
	sess.Table.Bind(sess.Orchestrator.State())
}

// applyTableParams binds the latest state, then applies sort before paging
// so that a page link keeps its position under the active sort.
func applyTableParams(sess *Session, q url.Values) {
	sess.Table.Bind(sess.Orchestrator.State())

	if q.Has("sort") {
		sess.Table.SortBy(appconsulta.ParseSortField(q.Get("sort")), appconsulta.ParseSortDirection(q.Get("dir")))
	}
	if !q.Has("page") && !q.Has("size") {
		return
	}

	page := sess.Table.Page()
	index, size := page.Index, 0
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		index = v
	}
	if v, err := strconv.Atoi(q.Get("size")); err == nil && slices.Contains(appconsulta.PageSizeOptions, v) {
		size = v
	}
	sess.Table.ChangePage(index, size)
}

func (h *Handler) render(w http.ResponseWriter, status int, view pageView) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		h.log.Error("Failed to render page", "error", err)
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.MsgInternal, nil, h.log)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("Failed to write page", "error", err)
	}
}

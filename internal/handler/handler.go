package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/medrank/tracker/internal/dashboard"
	"github.com/medrank/tracker/internal/export"
	"github.com/medrank/tracker/internal/form"
	"github.com/medrank/tracker/internal/handler/views"
	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/metrics"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/tracker"
	"github.com/medrank/tracker/internal/trend"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	ctrl   *tracker.Controller
	config model.AppConfig
	now    func() time.Time
}

// New creates a new Handler.
func New(ctrl *tracker.Controller, cfg model.AppConfig) *Handler {
	return &Handler{ctrl: ctrl, config: cfg, now: time.Now}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/api/tests", h.handleAPITests)
	r.Get("/charts/{subjectID}.png", h.handleChart)
	// Downloads stay outside the CSRF group so the page's token survives them.
	r.Get("/export.xlsx", h.handleExport)

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Get("/", h.handleDashboard)
		r.Get("/tests/new", h.handleNewTest)
		r.Post("/tests", h.handleCreateTest)
		r.Post("/tests/import", h.handleImportTests)
		r.Get("/tests/{id}/edit", h.handleEditTest)
		r.Post("/tests/{id}", h.handleUpdateTest)
		r.Post("/tests/{id}/delete", h.handleDeleteTest)
		r.Get("/insights", h.handleInsights)
		r.Post("/insights/analyze", h.handleAnalyze)
	})
}

// BasePathMiddleware stores the configured URL prefix in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// path prefixes an application path with the base path.
func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func parseFilter(r *http.Request) model.Category {
	filter, err := model.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		slog.Warn("ignoring category filter", "error", err)
		return model.CategoryAll
	}
	return filter
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, filter model.Category, alert string) {
	grid := dashboard.Build(h.ctrl.Tests(), filter)
	v := views.NewDashboardView(grid, appI18n.T(r.Context(), "FilterAll"), alert)
	h.render(w, r, status, views.DashboardPage(v))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Leaving the insights page abandons any pending analysis.
	h.ctrl.CancelAnalysis()
	h.renderDashboard(w, r, http.StatusOK, parseFilter(r), "")
}

func (h *Handler) handleNewTest(w http.ResponseWriter, r *http.Request) {
	var f form.Form
	f.OpenCreate(h.ctrl.Count(), h.now())
	h.render(w, r, http.StatusOK, views.FormPage(views.NewFormView(&f, "/tests", nil)))
}

func (h *Handler) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var f form.Form
	f.OpenCreate(h.ctrl.Count(), h.now())
	h.submitForm(w, r, &f, "/tests")
}

func (h *Handler) handleEditTest(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTest(w, r)
	if !ok {
		return
	}
	var f form.Form
	f.OpenEdit(t)
	action := fmt.Sprintf("/tests/%s", t.ID)
	h.render(w, r, http.StatusOK, views.FormPage(views.NewFormView(&f, action, nil)))
}

func (h *Handler) handleUpdateTest(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookupTest(w, r)
	if !ok {
		return
	}
	var f form.Form
	f.OpenEdit(t)
	h.submitForm(w, r, &f, fmt.Sprintf("/tests/%s", t.ID))
}

func (h *Handler) lookupTest(w http.ResponseWriter, r *http.Request) (model.GrandTest, bool) {
	t, err := h.ctrl.Test(chi.URLParam(r, "id"))
	if errors.Is(err, tracker.ErrNotFound) {
		http.Error(w, appI18n.T(r.Context(), "TestNotFound"), http.StatusNotFound)
		return model.GrandTest{}, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return model.GrandTest{}, false
	}
	return t, true
}

// submitForm applies the posted values to an open form. "recalculate" shows
// the recomputed marks again; anything else validates and saves.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request, f *form.Form, action string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := f.Apply(r.PostForm); err != nil {
		h.renderFormError(w, r, f, action, err)
		return
	}
	if r.PostForm.Get("action") == "recalculate" {
		h.render(w, r, http.StatusOK, views.FormPage(views.NewFormView(f, action, nil)))
		return
	}

	t, err := f.Save()
	if err != nil {
		h.renderFormError(w, r, f, action, err)
		return
	}
	if err := h.ctrl.Save(r.Context(), t); err != nil {
		slog.Error("failed to save test", "id", t.ID, "error", err)
		http.Error(w, appI18n.T(r.Context(), "SaveFailed"), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, f *form.Form, action string, err error) {
	var ve *form.ValidationError
	if !errors.As(err, &ve) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, views.FormPage(views.NewFormView(f, action, ve.Problems)))
}

func (h *Handler) handleDeleteTest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.ctrl.Delete(r.Context(), id)
	if errors.Is(err, tracker.ErrNotFound) {
		http.Error(w, appI18n.T(r.Context(), "TestNotFound"), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to delete test", "id", id, "error", err)
		http.Error(w, appI18n.T(r.Context(), "SaveFailed"), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
}

func (h *Handler) insightsView() views.InsightsView {
	text, analyzing := h.ctrl.Analysis()
	return views.InsightsView{TestCount: h.ctrl.Count(), Analysis: text, Analyzing: analyzing}
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.InsightsPage(h.insightsView()))
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	_, err := h.ctrl.Analyze(r.Context())
	if errors.Is(err, tracker.ErrSuperseded) {
		// A newer request or an edit replaced this one; show whatever is current.
		http.Redirect(w, r, h.path("/insights"), http.StatusSeeOther)
		return
	}
	if err != nil {
		slog.Warn("analysis returned a fallback", "error", err)
	}
	h.render(w, r, http.StatusOK, views.InsightsPage(h.insightsView()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter := parseFilter(r)
	tests := h.ctrl.Tests()

	var buf bytes.Buffer
	err := export.Write(&buf, tests, filter)
	if errors.Is(err, export.ErrNoTests) {
		token, err := h.currentCSRFToken(w, r)
		if err != nil {
			slog.Error("failed to generate CSRF token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		r = r.WithContext(model.ContextWithCSRFToken(r.Context(), token))
		h.renderDashboard(w, r, http.StatusBadRequest, filter, appI18n.T(r.Context(), "ExportNoTests"))
		return
	}
	if err != nil {
		slog.Error("export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	name := export.Filename(tests, filter, h.now())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("write export", "error", err)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	subject, ok := model.SubjectByID(chi.URLParam(r, "subjectID"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	err := trend.Render(&buf, subject, h.ctrl.Tests())
	if errors.Is(err, trend.ErrNoTests) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("chart failed", "subject", subject.ID, "error", err)
		http.Error(w, "chart failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("write chart", "error", err)
	}
}

func (h *Handler) handleAPITests(w http.ResponseWriter, r *http.Request) {
	tests := h.ctrl.Tests()
	if tests == nil {
		tests = []model.GrandTest{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tests); err != nil {
		slog.Error("encode tests", "error", err)
	}
}

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/model"
	"github.com/medrank/tracker/internal/store"
)

const (
	importField   = "tests_file"
	maxImportSize = 10 << 20
)

// handleImportTests merges an uploaded JSON test list, in the same format as
// /api/tests and the stored blob, into the tracked tests.
func (h *Handler) handleImportTests(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile(importField)
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	tests, err := store.DecodeTests(data)
	if errors.Is(err, store.ErrCorrupt) {
		slog.Warn("rejected import", "file", header.Filename, "error", err)
		h.renderDashboard(w, r, http.StatusBadRequest, model.CategoryAll, appI18n.T(r.Context(), "ImportInvalid"))
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, replaced, err := h.ctrl.Import(r.Context(), tests)
	if err != nil {
		slog.Error("failed to persist import", "file", header.Filename, "error", err)
		http.Error(w, appI18n.T(r.Context(), "SaveFailed"), http.StatusInternalServerError)
		return
	}
	alert := appI18n.Td(r.Context(), "ImportDone", map[string]any{"Added": added, "Replaced": replaced})
	h.renderDashboard(w, r, http.StatusOK, model.CategoryAll, alert)
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/lead-inbox/internal/entity"
	"github.com/xavierca1/lead-inbox/internal/export"
	"github.com/xavierca1/lead-inbox/internal/usecase"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
)

type LeadLister interface {
	Execute(ctx context.Context, input usecase.ListLeadsInput) ([]entity.ExportRow, error)
}

type AdminHandler struct {
	list LeadLister
	now  func() time.Time
}

func NewAdminHandler(list LeadLister) *AdminHandler {
	return &AdminHandler{list: list, now: time.Now}
}

// Export handles GET /api/admin/export (CSV unless format=json).
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, formatCSV)
}

// List handles GET /api/admin/list (JSON unless format=csv).
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, formatJSON)
}

func (h *AdminHandler) serve(w http.ResponseWriter, r *http.Request, defaultFormat string) {
	q := r.URL.Query()

	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = defaultFormat
	}
	if format != formatCSV && format != formatJSON {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "format must be csv or json", Code: "INVALID_FORMAT"})
		return
	}

	rows, err := h.list.Execute(r.Context(), usecase.ListLeadsInput{
		Site:  q.Get("site"),
		Type:  q.Get("type"),
		State: q.Get("state"),
		From:  q.Get("from"),
		To:    q.Get("to"),
	})
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	download := isTruthy(q.Get("download"))

	if format == formatJSON {
		if download {
			w.Header().Set("Content-Disposition", `attachment; filename="`+h.filename("json")+`"`)
		}
		writeJSON(w, http.StatusOK, export.ToJSON(rows))
		return
	}

	body, err := export.ToCSV(rows, export.Header)
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if download {
		w.Header().Set("Content-Disposition", `attachment; filename="`+h.filename("csv")+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// filename: export_YYYY-MM-DD-HH-MM-SS.<ext>, UTC
func (h *AdminHandler) filename(ext string) string {
	return "export_" + h.now().UTC().Format("2006-01-02-15-04-05") + "." + ext
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

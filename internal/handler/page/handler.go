package page

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed page.html
var pageHTML []byte

// Handler serves the single embedded page. All behavior lives in the JSON
// API; the page is plain presentation.
type Handler struct{}

// New creates the page handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the page at the root.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handlePage)
}

func (h *Handler) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pageHTML)
}

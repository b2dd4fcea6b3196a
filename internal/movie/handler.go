package movie

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/httpx"
)

type Catalog interface {
	Movie(ctx context.Context, id string) (json.RawMessage, error)
	Search(ctx context.Context, query, page string) (json.RawMessage, error)
}

type Handler struct {
	catalog Catalog
}

func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// Detail proxies GET /movies/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	body, err := h.catalog.Movie(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, apperr.Downstream("failed to fetch movie", err))
		return
	}

	httpx.WriteRawJSON(w, http.StatusOK, body)
}

// Search proxies GET /search?query=&page=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.catalog.Search(r.Context(), q.Get("query"), q.Get("page"))
	if err != nil {
		httpx.WriteError(w, r, apperr.Downstream("failed to search movies", err))
		return
	}

	httpx.WriteRawJSON(w, http.StatusOK, body)
}

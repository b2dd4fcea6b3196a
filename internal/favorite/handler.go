package favorite

import (
	"context"
	"math"
	"net/http"
	"strings"

	"movie-favorites/internal/apperr"
	"movie-favorites/internal/auth"
	"movie-favorites/internal/httpx"
)

type Store interface {
	Create(ctx context.Context, ownerID string, input Input) (Favorite, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Favorite, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperr.Unauthenticated("missing authorization token"))
		return
	}

	var input Input
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	input.Title = strings.TrimSpace(input.Title)
	if err := validate(input); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	created, err := h.store.Create(r.Context(), ownerID, input)
	if err != nil {
		httpx.WriteError(w, r, apperr.Downstream("failed to create favorite", err))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.SubjectFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperr.Unauthenticated("missing authorization token"))
		return
	}

	favorites, err := h.store.ListByOwner(r.Context(), ownerID)
	if err != nil {
		httpx.WriteError(w, r, apperr.Downstream("failed to list favorites", err))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, favorites)
}

func validate(input Input) error {
	if input.MovieAPIID <= 0 || input.MovieAPIID > math.MaxInt32 {
		return apperr.BadRequest("movie_api_id must be a positive integer")
	}
	if input.Title == "" {
		return apperr.BadRequest("title is required")
	}
	return nil
}

package auth

import (
	"net/http"

	"movie-favorites/internal/httpx"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	result, err := h.service.Signup(r.Context(), body.Email, body.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	result, err := h.service.Signin(r.Context(), body.Email, body.Password)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, result)
}

// Whoami answers GET /api/test with the caller's subject id.
func Whoami(w http.ResponseWriter, r *http.Request) {
	subject, _ := SubjectFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "in this protected route, we get the user's id like so: " + subject,
	})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nutritrack/nutritrack-go/internal/middleware"
	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/nutritrack/nutritrack-go/internal/service"
)

// ProfileHandler handles HTTP requests for the user profile.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// target returns the caller's principal and the user whose profile is
// addressed: the {userID} path parameter if present, else the caller.
func target(r *http.Request) (service.Principal, string, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return service.Principal{}, "", false
	}
	if id := chi.URLParam(r, "userID"); id != "" {
		return p, id, true
	}
	return p, p.UserID, true
}

// HandleGetProfile handles GET /profile and GET /users/{userID}/profile requests.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, userID, ok := target(r)
	if !ok {
		writeError(w, r, service.ErrUnauthorized)
		return
	}

	resp, err := h.service.GetProfile(r.Context(), p, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSaveProfile handles POST /profile and POST /users/{userID}/profile requests.
func (h *ProfileHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	p, userID, ok := target(r)
	if !ok {
		writeError(w, r, service.ErrUnauthorized)
		return
	}

	var req model.ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.service.SaveProfile(r.Context(), p, userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/bookmarker/internal/logging"
	"github.com/dmitrijs2005/bookmarker/internal/server/auth"
	"github.com/dmitrijs2005/bookmarker/internal/server/models"
	"github.com/dmitrijs2005/bookmarker/internal/server/services"
)

type AuthService interface {
	Signup(ctx context.Context, cred services.Credentials) (*models.PublicUser, error)
	Signin(ctx context.Context, cred services.Credentials) (*services.AccessToken, error)
	Me(ctx context.Context, userID string) (*models.PublicUser, error)
}

type handler struct {
	svc    AuthService
	logger logging.Logger
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), req.credentials())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *handler) signin(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, err := h.svc.Signin(r.Context(), req.credentials())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// me must be mounted behind Guard.
func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserField(r.Context(), "id").(string)

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		StatusCode: http.StatusNotFound,
		Message:    "Cannot " + r.Method + " " + r.URL.Path,
		Error:      http.StatusText(http.StatusNotFound),
	})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/nmwangi/efootball-league/models"
	"github.com/nmwangi/efootball-league/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// SignInHandler handles POST /auth/signin and returns a JWT for the admin API.
func (h *AuthHandler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := readJSON(w, r, &creds); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		badRequestResponse(w, r, errors.New("email and password are required"))
		return
	}

	token, admin, err := h.authService.SignIn(r.Context(), creds)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "admin": admin}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DashboardHandler handles GET /admin/dashboard
func (h *AuthHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.authService.DashboardStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

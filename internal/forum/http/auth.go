package http

import (
	"net/http"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
)

// AuthHandler handles the /api/auth endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

func authResponse(res service.AuthResult) forumsdk.AuthResponse {
	return forumsdk.AuthResponse{
		ID:       res.User.ID,
		Username: res.User.Username,
		Email:    res.User.Email,
		Message:  res.Message,
		Success:  true,
		Token:    res.Token,
	}
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req forumsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON in request body")
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}

	res, err := h.AuthService.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleRegister handles POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req forumsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON in request body")
		return
	}

	res, err := h.AuthService.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, authResponse(res))
}

// HandleRefresh handles POST /api/auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.AuthService.RefreshToken(r.Context(), principalFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// HandleMe handles GET /api/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context(), principalFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}

// HandleUpdateProfile handles PUT /api/auth/users/{id}. Users may only
// update their own profile.
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req forumsdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid JSON in request body")
		return
	}

	res, err := h.AuthService.UpdateProfile(r.Context(), principalFrom(r), r.PathValue("id"), service.ProfileUpdate{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authResponse(res))
}

// principalFrom returns the caller identity AuthnMiddleware put in the
// request context.
func principalFrom(r *http.Request) service.Principal {
	email, _ := httpx.SubjectFromContext(r.Context())
	uid, _ := httpx.UserIDFromContext(r.Context())
	return service.Principal{Email: email, UserID: uid}
}

func userResponse(u domain.User) forumsdk.UserResponse {
	return forumsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/auth"
)

// LoginService issues admin tokens
type LoginService interface {
	Login(ctx context.Context, username, password string) (*auth.Token, error)
}

// LoginRequest is the JSON form of the login body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthHandler serves login and logout
type AuthHandler struct {
	service LoginService
	limiter *RateLimiter
}

// NewAuthHandler creates a new auth handler. A nil limiter disables login
// rate limiting.
func NewAuthHandler(service LoginService, limiter *RateLimiter) *AuthHandler {
	return &AuthHandler{service: service, limiter: limiter}
}

// Routes returns the auth routes
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Limit)
		}
		r.Post("/login", h.Login)
	})
	r.Post("/logout", h.Logout)

	return r
}

// Login accepts form or JSON credentials and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, simplecms.ErrUnauthorized) {
			writeError(w, r, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		handleServiceError(w, r, err, "login")
		return
	}

	render.JSON(w, r, token)
}

// Logout is a no-op. Tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, MessageResponse{Message: "Successfully logged out"})
}

func readLogin(r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	default:
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}
}

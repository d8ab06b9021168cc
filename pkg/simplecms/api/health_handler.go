package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// BannerResponse is the body served at the root path
type BannerResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// HealthHandler serves the health probe and the service banner
type HealthHandler struct {
	service simplecms.Service
	banner  BannerResponse
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service simplecms.Service, banner BannerResponse) *HealthHandler {
	return &HealthHandler{service: service, banner: banner}
}

// Routes returns the health routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.Health)
	return r
}

// Health always answers 200 and reports the database state in the body
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health(r.Context()))
}

// Banner describes the running service
func (h *HealthHandler) Banner(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.banner)
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/media"
)

// multipartOverhead is the slack allowed above the image limit for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

// ImageURLResponse is the body of an image upload reply
type ImageURLResponse struct {
	URL string `json:"url"`
}

// DeleteImageRequest is the body of an image delete request
type DeleteImageRequest struct {
	URL string `json:"url"`
}

// AdminHandler handles the authenticated post management routes
type AdminHandler struct {
	service  simplecms.Service
	uploader *media.Uploader
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service simplecms.Service, uploader *media.Uploader) *AdminHandler {
	return &AdminHandler{
		service:  service,
		uploader: uploader,
	}
}

// Routes returns the admin routes. Callers wrap them with RequireAdmin.
func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/posts", h.ListPosts)
	r.Post("/posts", h.CreatePost)
	r.Get("/posts/{id}", h.GetPost)
	r.Put("/posts/{id}", h.UpdatePost)
	r.Patch("/posts/{id}", h.UpdatePost)
	r.Delete("/posts/{id}", h.DeletePost)
	r.Post("/posts/{id}/pin", h.PinPost)
	r.Post("/posts/{id}/unpin", h.UnpinPost)

	r.Post("/upload-image", h.UploadImage)
	r.Delete("/upload-image", h.DeleteImage)

	return r
}

// ListPosts lists posts in every state
func (h *AdminHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r.URL.Query(), true)
	if err != nil {
		handleServiceError(w, r, err, "admin list posts")
		return
	}

	page, err := h.service.ListAllPosts(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "admin list posts")
		return
	}

	render.JSON(w, r, page)
}

// CreatePost creates a new post
func (h *AdminHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req simplecms.CreatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "create post")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// GetPost returns a post in any state
func (h *AdminHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.service.GetPostByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get post")
		return
	}

	render.JSON(w, r, post)
}

// UpdatePost applies a partial update
func (h *AdminHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var req simplecms.UpdatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.service.UpdatePost(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err, "update post")
		return
	}

	render.JSON(w, r, post)
}

// DeletePost soft deletes a post, or removes it when soft_delete=false
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	soft := true
	if v := r.URL.Query().Get("soft_delete"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "soft_delete must be a boolean")
			return
		}
		soft = b
	}

	if err := h.service.DeletePost(r.Context(), id, simplecms.DeletePostRequest{Hard: !soft}); err != nil {
		handleServiceError(w, r, err, "delete post")
		return
	}

	msg := "Post soft deleted successfully"
	if !soft {
		msg = "Post permanently deleted successfully"
	}
	render.JSON(w, r, MessageResponse{Message: msg})
}

// PinPost pins a post to the top of listings
func (h *AdminHandler) PinPost(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, true)
}

// UnpinPost removes the pin
func (h *AdminHandler) UnpinPost(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, false)
}

func (h *AdminHandler) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.service.SetPinned(r.Context(), id, pinned)
	if err != nil {
		handleServiceError(w, r, err, "pin post")
		return
	}

	render.JSON(w, r, post)
}

// UploadImage stores the multipart "file" field and returns its public URL
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploader.MaxSize()+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handleServiceError(w, r, simplecms.ErrFileTooLarge, "upload image")
			return
		}
		slog.Warn("Missing upload file", "error", err)
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadImage(r.Context(), media.Image{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleServiceError(w, r, err, "upload image")
		return
	}

	render.JSON(w, r, ImageURLResponse{URL: url})
}

// DeleteImage removes an uploaded image given its URL, from the JSON body or
// the url query parameter
func (h *AdminHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		var req DeleteImageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		imageURL = req.URL
	}
	if imageURL == "" {
		writeError(w, r, http.StatusBadRequest, "url is required")
		return
	}

	if err := h.uploader.DeleteImage(r.Context(), imageURL); err != nil {
		handleServiceError(w, r, err, "delete image")
		return
	}

	render.JSON(w, r, MessageResponse{Message: "Image deleted successfully"})
}

// postID parses the {id} URL parameter. Malformed ids cannot match a post.
func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "Post not found")
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody decodes a JSON request body into v, replying 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var verr *simplecms.ValidationError
		if errors.As(err, &verr) {
			handleServiceError(w, r, verr, "decode body")
			return false
		}
		slog.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// PostsHandler serves the public, read-only post routes
type PostsHandler struct {
	service simplecms.Service
}

// NewPostsHandler creates a new public posts handler
func NewPostsHandler(service simplecms.Service) *PostsHandler {
	return &PostsHandler{service: service}
}

// Routes returns the routes for public posts
func (h *PostsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPosts)
	r.Get("/{idOrSlug}", h.GetPost)

	return r
}

// ListPosts returns one page of published posts
func (h *PostsHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r.URL.Query(), false)
	if err != nil {
		handleServiceError(w, r, err, "list posts")
		return
	}

	page, err := h.service.ListPublicPosts(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err, "list posts")
		return
	}

	render.JSON(w, r, page)
}

// GetPost returns one published post by id or slug
func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")

	post, err := h.service.GetPublicPost(r.Context(), idOrSlug)
	if err != nil {
		handleServiceError(w, r, err, "get post")
		return
	}

	render.JSON(w, r, post)
}

// parseListRequest reads listing parameters. The status and deleted filters
// are only honoured for admin listings.
func parseListRequest(values url.Values, admin bool) (simplecms.ListPostsRequest, error) {
	req := simplecms.ListPostsRequest{
		Type: simplecms.PostType(values.Get("type")),
		Tag:  values.Get("tag"),
		Q:    values.Get("q"),
		Sort: simplecms.SortOrder(values.Get("sort")),
	}

	var err error
	if req.Page, err = intParam(values, "page"); err != nil {
		return req, err
	}
	if req.PageSize, err = intParam(values, "page_size"); err != nil {
		return req, err
	}

	if admin {
		req.Status = simplecms.PostStatus(values.Get("status"))
		if v := values.Get("include_deleted"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return req, &simplecms.ValidationError{Field: "include_deleted", Message: "must be a boolean"}
			}
			req.IncludeDeleted = b
		}
	}
	return req, nil
}

func intParam(values url.Values, name string) (int, error) {
	v := values.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &simplecms.ValidationError{Field: name, Message: "must be an integer"}
	}
	if n < 1 {
		return 0, &simplecms.ValidationError{Field: name, Message: "must be greater than or equal to 1"}
	}
	return n, nil
}

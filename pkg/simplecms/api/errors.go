package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the body of replies that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}

// handleServiceError maps domain errors onto HTTP responses. Unexpected
// errors are logged and reported without detail.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verr *simplecms.ValidationError
	switch {
	case errors.Is(err, simplecms.ErrPostNotFound):
		writeError(w, r, http.StatusNotFound, "Post not found")
	case errors.Is(err, simplecms.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, simplecms.ErrInvalidFileType):
		writeError(w, r, http.StatusBadRequest, "Invalid file type")
	case errors.Is(err, simplecms.ErrFileTooLarge):
		writeError(w, r, http.StatusBadRequest, "File too large (max 10MB)")
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, simplecms.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, simplecms.ErrUploadFailed):
		slog.Error("Upload failed", "op", op, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to upload image")
	case errors.Is(err, simplecms.ErrDeleteFailed):
		slog.Error("Delete failed", "op", op, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete image")
	default:
		slog.Error("Request failed", "op", op, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

package simplecms

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field limits for post input.
const (
	MaxTitleLength   = 200
	MaxSummaryLength = 500
)

var validate = validator.New()

// CreatePostRequest contains parameters for creating a post
type CreatePostRequest struct {
	Title         string     `json:"title" validate:"required,min=1,max=200"`
	Summary       string     `json:"summary" validate:"max=500"`
	ContentMD     string     `json:"content_md"`
	Type          PostType   `json:"type" validate:"required"`
	Status        PostStatus `json:"status"`
	Tags          []string   `json:"tags"`
	CoverImageURL *string    `json:"cover_image_url"`
	ExternalLinks []string   `json:"external_links"`
	Pinned        bool       `json:"pinned"`
}

// Validate checks the request and fills defaults.
func (r *CreatePostRequest) Validate() error {
	if r.Status == "" {
		r.Status = PostStatusDraft
	}
	if err := validate.Struct(r); err != nil {
		return translateValidation(err)
	}
	if !r.Type.IsValid() {
		return &ValidationError{Field: "type", Message: "must be one of recipe, tech"}
	}
	if !r.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "must be one of draft, published"}
	}
	return nil
}

// UpdatePostRequest is a partial update. Only fields with Set == true are
// applied; Null clears optional fields and is rejected for required ones.
type UpdatePostRequest struct {
	Title         Optional[string]     `json:"title,omitzero"`
	Summary       Optional[string]     `json:"summary,omitzero"`
	ContentMD     Optional[string]     `json:"content_md,omitzero"`
	Type          Optional[PostType]   `json:"type,omitzero"`
	Status        Optional[PostStatus] `json:"status,omitzero"`
	Tags          Optional[[]string]   `json:"tags,omitzero"`
	CoverImageURL Optional[string]     `json:"cover_image_url,omitzero"`
	ExternalLinks Optional[[]string]   `json:"external_links,omitzero"`
	Pinned        Optional[bool]       `json:"pinned,omitzero"`
}

// Validate checks every provided field.
func (r *UpdatePostRequest) Validate() error {
	if r.Title.Set {
		if r.Title.Null {
			return &ValidationError{Field: "title", Message: "cannot be null"}
		}
		if err := validate.Var(r.Title.Value, "min=1,max=200"); err != nil {
			return &ValidationError{Field: "title", Message: "must be between 1 and 200 characters"}
		}
	}
	if r.Summary.HasValue() {
		if err := validate.Var(r.Summary.Value, "max=500"); err != nil {
			return &ValidationError{Field: "summary", Message: "must be at most 500 characters"}
		}
	}
	if r.Type.Set && (r.Type.Null || !r.Type.Value.IsValid()) {
		return &ValidationError{Field: "type", Message: "must be one of recipe, tech"}
	}
	if r.Status.Set && (r.Status.Null || !r.Status.Value.IsValid()) {
		return &ValidationError{Field: "status", Message: "must be one of draft, published"}
	}
	if r.Pinned.Set && r.Pinned.Null {
		return &ValidationError{Field: "pinned", Message: "cannot be null"}
	}
	return nil
}

// DeletePostRequest selects between soft and hard deletion
type DeletePostRequest struct {
	Hard bool
}

// ListPostsRequest contains the caller-facing listing parameters
type ListPostsRequest struct {
	Type           PostType   `json:"type,omitempty"`
	Tag            string     `json:"tag,omitempty"`
	Q              string     `json:"q,omitempty"`
	Status         PostStatus `json:"status,omitempty"`
	IncludeDeleted bool       `json:"include_deleted,omitempty"`
	Page           int        `json:"page,omitempty"`
	PageSize       int        `json:"page_size,omitempty"`
	Sort           SortOrder  `json:"sort,omitempty"`
}

// translateValidation converts validator errors into a ValidationError for
// the first failing field.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: "is required"}
	case "min":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %s characters", fe.Param())}
	case "max":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}

func jsonFieldName(goName string) string {
	switch goName {
	case "ContentMD":
		return "content_md"
	case "CoverImageURL":
		return "cover_image_url"
	case "ExternalLinks":
		return "external_links"
	}
	return strings.ToLower(goName)
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

package simplecms

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrAdminNotFound indicates an admin user was not found
	ErrAdminNotFound = errors.New("admin user not found")

	// ErrAlreadyExists indicates a unique key such as a post id, slug or
	// username is taken
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized covers missing, invalid or expired tokens as well as bad
	// login credentials. Callers never learn which one it was.
	ErrUnauthorized = errors.New("could not validate credentials")

	// ErrValidation is the root of every input validation failure
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFileType indicates an upload with a MIME type outside the allowlist
	ErrInvalidFileType = fmt.Errorf("%w: invalid file type", ErrValidation)

	// ErrFileTooLarge indicates an upload above the size ceiling
	ErrFileTooLarge = fmt.Errorf("%w: file too large", ErrValidation)

	// ErrObjectNotFound indicates a blob key with no stored object
	ErrObjectNotFound = errors.New("object not found")

	// ErrUploadFailed indicates the object storage rejected an upload
	ErrUploadFailed = errors.New("upload failed")

	// ErrDeleteFailed indicates the object storage rejected a delete
	ErrDeleteFailed = errors.New("delete failed")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PostError represents an error related to post operations
type PostError struct {
	PostID uuid.UUID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

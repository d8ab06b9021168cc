// Package media relays admin image uploads to blob storage and hands back
// their public URLs.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/objectkey"
	"github.com/tendant/simple-cms/pkg/simplecms/urlstrategy"
)

// MaxImageSize is the largest accepted upload, 10 MiB.
const MaxImageSize int64 = 10 << 20

// AllowedTypes lists the accepted image MIME types.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is one incoming file.
type Image struct {
	FileName    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Uploader validates images and stores them under generated keys.
type Uploader struct {
	store   simplecms.BlobStore
	urls    urlstrategy.URLStrategy
	keys    objectkey.Generator
	maxSize int64
	logger  *slog.Logger
	newID   func() uuid.UUID
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithKeyGenerator overrides the object key layout.
func WithKeyGenerator(g objectkey.Generator) Option {
	return func(u *Uploader) { u.keys = g }
}

// WithMaxSize overrides MaxImageSize.
func WithMaxSize(n int64) Option {
	return func(u *Uploader) { u.maxSize = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) { u.logger = logger }
}

// WithIDFunc overrides the id source used in object keys.
func WithIDFunc(fn func() uuid.UUID) Option {
	return func(u *Uploader) { u.newID = fn }
}

// New creates an Uploader writing to store and addressing objects through urls.
func New(store simplecms.BlobStore, urls urlstrategy.URLStrategy, options ...Option) (*Uploader, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if urls == nil {
		return nil, errors.New("url strategy is required")
	}
	u := &Uploader{
		store:   store,
		urls:    urls,
		keys:    objectkey.NewRecommendedGenerator(),
		maxSize: MaxImageSize,
		logger:  slog.Default(),
		newID:   uuid.New,
	}
	for _, option := range options {
		option(u)
	}
	return u, nil
}

// MaxSize returns the configured size ceiling in bytes.
func (u *Uploader) MaxSize() int64 { return u.maxSize }

// IsAllowedType reports whether contentType is an accepted image type.
func IsAllowedType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range AllowedTypes {
		if contentType == allowed {
			return true
		}
	}
	return false
}

// UploadImage stores img and returns its public URL. Rejected images never
// reach the blob store.
func (u *Uploader) UploadImage(ctx context.Context, img Image) (string, error) {
	if !IsAllowedType(img.ContentType) {
		return "", simplecms.ErrInvalidFileType
	}
	if img.Size > u.maxSize {
		return "", simplecms.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(img.Body, u.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxSize {
		return "", simplecms.ErrFileTooLarge
	}

	contentType := strings.ToLower(strings.TrimSpace(img.ContentType))
	key := u.keys.GenerateKey(u.newID(), &objectkey.KeyMetadata{
		FileName:    img.FileName,
		ContentType: contentType,
	})

	err = u.store.UploadWithParams(ctx, bytes.NewReader(data), simplecms.UploadParams{
		ObjectKey: key,
		MimeType:  contentType,
		Size:      int64(len(data)),
	})
	if err != nil {
		u.logger.Error("image upload failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %w", simplecms.ErrUploadFailed, err)
	}

	url, err := u.urls.PublicURL(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", simplecms.ErrUploadFailed, err)
	}

	u.logger.Info("image uploaded", "key", key, "size", len(data), "content_type", contentType)
	return url, nil
}

// DeleteImage removes the object behind a URL previously returned by
// UploadImage. Deleting an object that is already gone succeeds.
func (u *Uploader) DeleteImage(ctx context.Context, url string) error {
	key, err := u.urls.ObjectKey(strings.TrimSpace(url))
	if err != nil {
		return &simplecms.ValidationError{Field: "url", Message: err.Error()}
	}

	if err := u.store.Delete(ctx, key); err != nil && !errors.Is(err, simplecms.ErrObjectNotFound) {
		u.logger.Error("image delete failed", "key", key, "error", err)
		return fmt.Errorf("%w: %w", simplecms.ErrDeleteFailed, err)
	}

	u.logger.Info("image deleted", "key", key)
	return nil
}

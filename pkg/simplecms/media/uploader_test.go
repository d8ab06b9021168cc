package media_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/media"
	memorystorage "github.com/tendant/simple-cms/pkg/simplecms/storage/memory"
	"github.com/tendant/simple-cms/pkg/simplecms/urlstrategy"
)

var fixedID = uuid.MustParse("11111111-2222-3333-4444-555555555555")

func setupUploaderTest(t *testing.T, opts ...media.Option) (*media.Uploader, *memorystorage.Backend) {
	t.Helper()
	store := memorystorage.New()
	opts = append([]media.Option{media.WithIDFunc(func() uuid.UUID { return fixedID })}, opts...)
	uploader, err := media.New(store, urlstrategy.NewS3Strategy("blog", "us-east-1"), opts...)
	require.NoError(t, err)
	return uploader, store
}

func TestUploadImage(t *testing.T) {
	uploader, store := setupUploaderTest(t)
	ctx := context.Background()

	url, err := uploader.UploadImage(ctx, media.Image{
		FileName:    "chili.png",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://blog.s3.us-east-1.amazonaws.com/posts/11111111-2222-3333-4444-555555555555.png", url)
	assert.Equal(t, 1, store.Uploads())

	mimeType, ok := store.MimeType("posts/11111111-2222-3333-4444-555555555555.png")
	assert.True(t, ok)
	assert.Equal(t, "image/png", mimeType)
}

func TestUploadImage_DefaultExtension(t *testing.T) {
	uploader, _ := setupUploaderTest(t)

	url, err := uploader.UploadImage(context.Background(), media.Image{
		FileName:    "blob",
		ContentType: "image/jpeg",
		Size:        -1,
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, fixedID.String()+".jpg"))
}

func TestUploadImage_ExtensionFromContentType(t *testing.T) {
	uploader, store := setupUploaderTest(t)

	url, err := uploader.UploadImage(context.Background(), media.Image{
		FileName:    "blob",
		ContentType: "image/webp",
		Size:        4,
		Body:        strings.NewReader("RIFF"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, fixedID.String()+".webp"))

	_, ok := store.MimeType("posts/" + fixedID.String() + ".webp")
	assert.True(t, ok)
}

func TestUploadImage_RejectsType(t *testing.T) {
	uploader, store := setupUploaderTest(t)

	_, err := uploader.UploadImage(context.Background(), media.Image{
		FileName:    "resume.pdf",
		ContentType: "application/pdf",
		Size:        3,
		Body:        strings.NewReader("pdf"),
	})
	assert.ErrorIs(t, err, simplecms.ErrInvalidFileType)
	assert.ErrorIs(t, err, simplecms.ErrValidation)
	assert.Equal(t, 0, store.Uploads())
}

func TestUploadImage_RejectsOversize(t *testing.T) {
	uploader, store := setupUploaderTest(t, media.WithMaxSize(8))
	ctx := context.Background()

	t.Run("DeclaredSize", func(t *testing.T) {
		_, err := uploader.UploadImage(ctx, media.Image{
			FileName: "big.gif", ContentType: "image/gif", Size: 9, Body: strings.NewReader("123456789"),
		})
		assert.ErrorIs(t, err, simplecms.ErrFileTooLarge)
	})

	t.Run("UndeclaredSize", func(t *testing.T) {
		_, err := uploader.UploadImage(ctx, media.Image{
			FileName: "big.gif", ContentType: "image/gif", Size: -1, Body: strings.NewReader("123456789"),
		})
		assert.ErrorIs(t, err, simplecms.ErrFileTooLarge)
	})

	t.Run("ExactlyAtLimit", func(t *testing.T) {
		_, err := uploader.UploadImage(ctx, media.Image{
			FileName: "ok.gif", ContentType: "image/gif", Size: 8, Body: strings.NewReader("12345678"),
		})
		assert.NoError(t, err)
	})

	assert.Equal(t, 1, store.Uploads())
}

func TestDefaultMaxSize(t *testing.T) {
	uploader, _ := setupUploaderTest(t)
	assert.Equal(t, int64(10*1024*1024), uploader.MaxSize())

	_, err := uploader.UploadImage(context.Background(), media.Image{
		FileName: "huge.webp", ContentType: "image/webp", Size: -1,
		Body: bytes.NewReader(make([]byte, 10*1024*1024+1)),
	})
	assert.ErrorIs(t, err, simplecms.ErrFileTooLarge)
}

type failingStore struct{}

func (failingStore) UploadWithParams(context.Context, io.Reader, simplecms.UploadParams) error {
	return errors.New("access denied")
}
func (failingStore) Download(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("access denied")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("access denied") }

func TestUploadImage_StoreFailure(t *testing.T) {
	uploader, err := media.New(failingStore{}, urlstrategy.NewS3Strategy("blog", "us-east-1"))
	require.NoError(t, err)

	_, err = uploader.UploadImage(context.Background(), media.Image{
		FileName: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, simplecms.ErrUploadFailed)

	err = uploader.DeleteImage(context.Background(), "https://blog.s3.us-east-1.amazonaws.com/posts/a.png")
	assert.ErrorIs(t, err, simplecms.ErrDeleteFailed)
}

func TestDeleteImage(t *testing.T) {
	uploader, store := setupUploaderTest(t)
	ctx := context.Background()

	url, err := uploader.UploadImage(ctx, media.Image{
		FileName: "a.webp", ContentType: "image/webp", Size: 1, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)

	require.NoError(t, uploader.DeleteImage(ctx, url))
	_, ok := store.MimeType("posts/" + fixedID.String() + ".webp")
	assert.False(t, ok)

	assert.NoError(t, uploader.DeleteImage(ctx, url), "deleting twice succeeds")
	assert.ErrorIs(t, uploader.DeleteImage(ctx, "https://example.com/x.png"), simplecms.ErrValidation)
}

func TestDeleteImage_OtherBucketRejected(t *testing.T) {
	uploader, store := setupUploaderTest(t)
	ctx := context.Background()

	url, err := uploader.UploadImage(ctx, media.Image{
		FileName: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x"),
	})
	require.NoError(t, err)

	foreign := strings.Replace(url, "https://blog.", "https://someone-else.", 1)
	assert.ErrorIs(t, uploader.DeleteImage(ctx, foreign), simplecms.ErrValidation)

	_, ok := store.MimeType("posts/" + fixedID.String() + ".png")
	assert.True(t, ok, "object in the configured bucket is untouched")
}

func TestIsAllowedType(t *testing.T) {
	for _, ct := range media.AllowedTypes {
		assert.True(t, media.IsAllowedType(ct), ct)
	}
	assert.True(t, media.IsAllowedType(" IMAGE/PNG "))
	assert.False(t, media.IsAllowedType("image/svg+xml"))
	assert.False(t, media.IsAllowedType(""))
}

package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	memorystorage "github.com/tendant/simple-cms/pkg/simplecms/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "posts/cover.png"
	testData := "\x89PNG fake image bytes"

	t.Run("UploadWithParams", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, strings.NewReader(testData), simplecms.UploadParams{
			ObjectKey: testKey,
			MimeType:  "image/png",
			Size:      int64(len(testData)),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, backend.Uploads())

		mimeType, ok := backend.MimeType(testKey)
		assert.True(t, ok)
		assert.Equal(t, "image/png", mimeType)
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, testData, string(data))
	})

	t.Run("DefaultMimeType", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, strings.NewReader("x"), simplecms.UploadParams{ObjectKey: "raw"})
		require.NoError(t, err)

		mimeType, _ := backend.MimeType("raw")
		assert.Equal(t, "application/octet-stream", mimeType)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, simplecms.ErrObjectNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, testKey), simplecms.ErrObjectNotFound)
	})
}

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(ctx, Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, "test-bucket", backend.Bucket())
	})

	t.Run("CustomEndpoint", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			Endpoint:        "http://localhost:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000", backend.config.Endpoint)
		assert.True(t, backend.config.UsePathStyle)
	})
}

func TestApplySSE(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		b := &Backend{config: Config{SSEAlgorithm: "AES256"}}
		input := &s3.PutObjectInput{}
		b.applySSE(input)
		assert.Empty(t, input.ServerSideEncryption)
	})

	t.Run("AES256", func(t *testing.T) {
		b := &Backend{config: Config{EnableSSE: true, SSEAlgorithm: "AES256"}}
		input := &s3.PutObjectInput{}
		b.applySSE(input)
		assert.Equal(t, types.ServerSideEncryptionAes256, input.ServerSideEncryption)
	})

	t.Run("KMSWithKeyID", func(t *testing.T) {
		b := &Backend{config: Config{EnableSSE: true, SSEAlgorithm: "aws:kms", SSEKMSKeyID: "key-1"}}
		input := &s3.PutObjectInput{}
		b.applySSE(input)
		assert.Equal(t, types.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
		require.NotNil(t, input.SSEKMSKeyId)
		assert.Equal(t, "key-1", *input.SSEKMSKeyId)
	})
}

func TestIsAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou", Message: "owned"}
	assert.True(t, isAPIError(fmt.Errorf("wrapped: %w", apiErr), "BucketAlreadyExists", "BucketAlreadyOwnedByYou"))
	assert.False(t, isAPIError(apiErr, "NoSuchBucket"))
	assert.True(t, isAPIError(errors.New("api error NoSuchBucket: gone"), "NoSuchBucket"))
}

// TestS3Backend_Integration requires a running MinIO instance or S3 credentials
func TestS3Backend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	accessKey := os.Getenv("S3_TEST_ACCESS_KEY")
	secretKey := os.Getenv("S3_TEST_SECRET_KEY")
	if endpoint == "" || accessKey == "" || secretKey == "" {
		t.Skip("Skipping integration test: S3/MinIO environment variables not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := New(ctx, Config{
		Region:                 "us-east-1",
		Bucket:                 fmt.Sprintf("cms-test-%d", time.Now().UnixNano()),
		AccessKeyID:            accessKey,
		SecretAccessKey:        secretKey,
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	key := "posts/integration.png"
	data := []byte("fake png")
	require.NoError(t, backend.UploadWithParams(ctx, bytes.NewReader(data), simplecms.UploadParams{
		ObjectKey: key,
		MimeType:  "image/png",
		Size:      int64(len(data)),
	}))

	rc, err := backend.Download(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, backend.Delete(ctx, key))
	_, err = backend.Download(ctx, key)
	assert.ErrorIs(t, err, simplecms.ErrObjectNotFound)
}

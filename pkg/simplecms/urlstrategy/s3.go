package urlstrategy

import (
	"fmt"
	"strings"
)

// S3Strategy generates virtual-hosted style bucket URLs:
// https://{bucket}.s3.{region}.amazonaws.com/{key}
type S3Strategy struct {
	Bucket string
	Region string
}

// NewS3Strategy creates a new S3 URL strategy
func NewS3Strategy(bucket, region string) *S3Strategy {
	if region == "" {
		region = "us-east-1"
	}
	return &S3Strategy{Bucket: bucket, Region: region}
}

func (s *S3Strategy) baseURL() string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.Bucket, s.Region)
}

func (s *S3Strategy) PublicURL(objectKey string) (string, error) {
	if s.Bucket == "" {
		return "", fmt.Errorf("S3 bucket not configured")
	}
	return s.baseURL() + strings.TrimPrefix(objectKey, "/"), nil
}

// ObjectKey accepts only URLs under this bucket's virtual-hosted base URL.
func (s *S3Strategy) ObjectKey(publicURL string) (string, error) {
	if s.Bucket != "" {
		if key, ok := strings.CutPrefix(publicURL, s.baseURL()); ok && key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
}

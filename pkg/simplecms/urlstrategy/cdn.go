package urlstrategy

import (
	"fmt"
	"strings"
)

// CDNStrategy serves objects below a fixed base URL, such as a CDN host or
// the application's own /uploads route.
type CDNStrategy struct {
	BaseURL string // e.g., "https://cdn.example.com" or "/uploads"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(baseURL string) *CDNStrategy {
	return &CDNStrategy{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *CDNStrategy) PublicURL(objectKey string) (string, error) {
	if s.BaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	return s.BaseURL + "/" + strings.TrimPrefix(objectKey, "/"), nil
}

func (s *CDNStrategy) ObjectKey(publicURL string) (string, error) {
	key, ok := strings.CutPrefix(publicURL, s.BaseURL+"/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
	}
	return key, nil
}

package urlstrategy

import "fmt"

// URLStrategyType represents the type of URL strategy
type URLStrategyType string

const (
	// S3 strategy for public bucket URLs
	StrategyTypeS3 URLStrategyType = "s3"

	// CDN strategy for a fixed base URL in front of the storage
	StrategyTypeCDN URLStrategyType = "cdn"
)

// Config holds configuration for URL strategy creation
type Config struct {
	Type       URLStrategyType
	Bucket     string // For S3 strategy
	Region     string // For S3 strategy
	CDNBaseURL string // For CDN strategy
}

// NewURLStrategy creates a URL strategy based on the configuration
func NewURLStrategy(config Config) (URLStrategy, error) {
	switch config.Type {
	case StrategyTypeS3:
		if config.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 strategy")
		}
		return NewS3Strategy(config.Bucket, config.Region), nil

	case StrategyTypeCDN:
		if config.CDNBaseURL == "" {
			return nil, fmt.Errorf("CDN base URL is required for CDN strategy")
		}
		return NewCDNStrategy(config.CDNBaseURL), nil

	default:
		return nil, fmt.Errorf("unknown URL strategy type: %s", config.Type)
	}
}

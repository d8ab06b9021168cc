// Package urlstrategy maps stored object keys to the public URLs handed to
// clients, and back.
package urlstrategy

import "errors"

// ErrForeignURL is returned when a URL was not produced by the strategy.
var ErrForeignURL = errors.New("url does not belong to this storage")

// URLStrategy defines the interface for URL generation strategies
type URLStrategy interface {
	// PublicURL returns the publicly reachable URL of objectKey
	PublicURL(objectKey string) (string, error)

	// ObjectKey recovers the object key from a URL returned by PublicURL
	ObjectKey(publicURL string) (string, error)
}

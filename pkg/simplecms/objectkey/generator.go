package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultPrefix is the folder every post image lands under.
const DefaultPrefix = "posts"

// DefaultExtension is used when neither the file name nor the content type
// gives one.
const DefaultExtension = "jpg"

var mimeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for storage backends
	GenerateKey(objectID uuid.UUID, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	FileName    string
	ContentType string
}

// FlatGenerator keeps every object directly under the prefix:
// posts/3f2c...e1.png
type FlatGenerator struct {
	Prefix string
}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{Prefix: DefaultPrefix}
}

func (g *FlatGenerator) GenerateKey(objectID uuid.UUID, metadata *KeyMetadata) string {
	return fmt.Sprintf("%s/%s.%s", prefix(g.Prefix), objectID, extension(metadata))
}

// GitLikeGenerator shards objects by the leading characters of their id:
// posts/3f/2c...e1.png
type GitLikeGenerator struct {
	Prefix string
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{Prefix: DefaultPrefix, ShardLength: 2}
}

func (g *GitLikeGenerator) GenerateKey(objectID uuid.UUID, metadata *KeyMetadata) string {
	idStr := strings.ReplaceAll(objectID.String(), "-", "")

	shard := g.ShardLength
	if shard <= 0 {
		shard = 2
	}
	if shard > len(idStr) {
		shard = len(idStr)
	}

	return fmt.Sprintf("%s/%s/%s.%s", prefix(g.Prefix), idStr[:shard], idStr[shard:], extension(metadata))
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(objectID uuid.UUID, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(objectID uuid.UUID, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateKey(objectID uuid.UUID, metadata *KeyMetadata) string {
	return g.GenerateFunc(objectID, metadata)
}

// Extension returns the lower-cased extension of fileName, or DefaultExtension
// when it has none or the extension is not plain alphanumeric.
func Extension(fileName string) string {
	if ext, ok := fileExtension(fileName); ok {
		return ext
	}
	return DefaultExtension
}

// ExtensionFor picks the extension from the file name, then from the content
// type, then falls back to DefaultExtension.
func ExtensionFor(fileName, contentType string) string {
	if ext, ok := fileExtension(fileName); ok {
		return ext
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if ext, ok := mimeExtensions[strings.ToLower(strings.TrimSpace(mediaType))]; ok {
		return ext
	}
	return DefaultExtension
}

func fileExtension(fileName string) (string, bool) {
	idx := strings.LastIndex(fileName, ".")
	if idx == -1 || idx == len(fileName)-1 {
		return "", false
	}
	ext := strings.ToLower(fileName[idx+1:])
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", false
		}
	}
	return ext, true
}

func extension(metadata *KeyMetadata) string {
	if metadata == nil {
		return DefaultExtension
	}
	return ExtensionFor(metadata.FileName, metadata.ContentType)
}

func prefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// NewRecommendedGenerator returns the generator used when nothing is configured
func NewRecommendedGenerator() Generator {
	return NewFlatGenerator()
}

// New returns the generator registered under name: "flat" or "git-like".
func New(name string) (Generator, error) {
	switch name {
	case "", "flat":
		return NewFlatGenerator(), nil
	case "git-like":
		return NewGitLikeGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown object key generator: %s", name)
	}
}

// Package images resolves card artwork URLs on DigitalOcean Spaces. URL
// construction is deterministic from bucket/region/root plus the catalog
// image name; existence checks go through S3 HeadObject with an LRU memo so
// repeated lookups for the same card stay off the network.
package images

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	lru "github.com/hashicorp/golang-lru"

	"github.com/pockettcg/collector/collector/catalog"
)

const (
	headTimeout   = 500 * time.Millisecond
	existsMemoCap = 2048
)

// objectHeader is the slice of the S3 client the resolver needs.
type objectHeader interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Service builds and verifies card image URLs.
type Service struct {
	client         objectHeader
	bucket         string
	region         string
	cardRoot       string
	placeholderURL string
	exists         *lru.Cache
}

// New connects to the Spaces endpoint for the given region.
func New(spacesKey, spacesSecret, region, bucket, cardRoot, placeholderURL string) (*Service, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load spaces config: %w", err)
	}

	return newService(s3.NewFromConfig(cfg), region, bucket, cardRoot, placeholderURL), nil
}

// NewWithClient wires an existing client; tests use it.
func NewWithClient(client objectHeader, region, bucket, cardRoot, placeholderURL string) *Service {
	return newService(client, region, bucket, cardRoot, placeholderURL)
}

func newService(client objectHeader, region, bucket, cardRoot, placeholderURL string) *Service {
	memo, _ := lru.New(existsMemoCap)
	return &Service{
		client:         client,
		bucket:         bucket,
		region:         region,
		cardRoot:       strings.Trim(cardRoot, "/"),
		placeholderURL: placeholderURL,
		exists:         memo,
	}
}

// PlaceholderURL is the fallback image shown for cards with no artwork.
func (s *Service) PlaceholderURL() string { return s.placeholderURL }

// CardURL returns the deterministic artwork URL for a card, or the
// placeholder when the catalog carries no image name.
func (s *Service) CardURL(card catalog.Card) string {
	key := s.objectKey(card)
	if key == "" {
		return s.placeholderURL
	}
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, key)
}

// ResolveURL returns the artwork URL only if the object actually exists,
// falling back to the placeholder. Results are memoized per object key.
func (s *Service) ResolveURL(ctx context.Context, card catalog.Card) string {
	key := s.objectKey(card)
	if key == "" {
		return s.placeholderURL
	}
	if hit, ok := s.exists.Get(key); ok {
		if hit.(bool) {
			return s.CardURL(card)
		}
		return s.placeholderURL
	}

	headCtx, cancel := context.WithTimeout(ctx, headTimeout)
	defer cancel()

	_, err := s.client.HeadObject(headCtx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	s.exists.Add(key, err == nil)
	if err != nil {
		return s.placeholderURL
	}
	return s.CardURL(card)
}

// objectKey lays images out as <root>/<set>/<imageName>.webp, tolerating
// catalogs that already carry an extension.
func (s *Service) objectKey(card catalog.Card) string {
	name := card.ImageName
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ".") {
		name += ".webp"
	}
	parts := []string{}
	if s.cardRoot != "" {
		parts = append(parts, s.cardRoot)
	}
	parts = append(parts, card.Set, name)
	return strings.Join(parts, "/")
}

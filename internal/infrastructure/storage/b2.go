package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/kurin/blazer/b2"
)

// B2Store uploads attachments to a Backblaze B2 bucket.
type B2Store struct {
	client *b2.Client
	bucket *b2.Bucket
	prefix string
}

func NewB2Store(ctx context.Context, accountID, appKey, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &B2Store{client: client, bucket: bucket, prefix: "events/"}, nil
}

// Store uploads r and returns the object's download URL.
func (s *B2Store) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	key := s.prefix + objectName(originalName)
	w := s.bucket.Object(key).NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	return s.urlBase() + key, nil
}

// Remove deletes the object behind a download URL returned by Store.
func (s *B2Store) Remove(ctx context.Context, token string) error {
	key, ok := strings.CutPrefix(token, s.urlBase())
	if !ok || !strings.HasPrefix(key, s.prefix) {
		return fmt.Errorf("attachment token %q is not managed by this store", token)
	}
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *B2Store) urlBase() string {
	return fmt.Sprintf("%s/file/%s/", s.bucket.BaseURL(), s.bucket.Name())
}

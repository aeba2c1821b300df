// Package memory is an in-process ObjectStorage used when no bucket is configured.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"payops/internal/domain"
	"payops/internal/port"
)

type object struct {
	data        []byte
	contentType string
}

// Storage keeps objects in a map keyed by bucket and key.
type Storage struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

var _ port.ObjectStorage = (*Storage)(nil)

// NewStorage creates an empty in-memory object store.
func NewStorage() *Storage {
	return &Storage{objects: make(map[string]object), now: time.Now}
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *Storage) Upload(_ context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, fmt.Errorf("memory upload %s: %w", input.Key, err)
	}
	s.mu.Lock()
	s.objects[objectKey(input.Bucket, input.Key)] = object{data: data, contentType: input.ContentType}
	s.mu.Unlock()
	return &port.UploadOutput{Location: "memory://" + objectKey(input.Bucket, input.Key)}, nil
}

func (s *Storage) Download(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[objectKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("memory download %s: %w", key, domain.ErrNotFound)
	}
	return bytes.Clone(obj.data), nil
}

func (s *Storage) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	delete(s.objects, objectKey(bucket, key))
	s.mu.Unlock()
	return nil
}

// GetPresignedURL returns a memory:// URL carrying the expiry, for parity with S3 responses.
func (s *Storage) GetPresignedURL(_ context.Context, bucket, key string, expirySeconds int64) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[objectKey(bucket, key)]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("memory presign %s: %w", key, domain.ErrNotFound)
	}
	expires := s.now().Add(time.Duration(expirySeconds) * time.Second).Unix()
	u := url.URL{
		Scheme:   "memory",
		Host:     bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(expires)}}.Encode(),
	}
	return u.String(), nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"storefront-service/internal/apperr"
)

const MaxImageSize = 5 << 20

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Images names, stores and addresses product images.
type Images struct {
	store   ObjectStore
	baseURL string
	now     func() time.Time
}

func NewImages(store ObjectStore, publicBaseURL string) *Images {
	return &Images{store: store, baseURL: strings.TrimRight(publicBaseURL, "/"), now: time.Now}
}

// Key returns the storage key for an uploaded file: products/<unix-millis>_<filename>.
func (i *Images) Key(filename string) string {
	name := unsafeNameChars.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("products/%d_%s", i.now().UnixMilli(), name)
}

// URL is the public download address for key.
func (i *Images) URL(key string) string {
	return i.baseURL + "/media/" + key
}

// Upload stores an image and returns its download URL.
func (i *Images) Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", apperr.Validation("file", "file is empty")
	}
	if len(data) > MaxImageSize {
		return "", apperr.Validation("file", "file exceeds 5MB")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("file", "only image uploads are allowed")
	}

	key := i.Key(filename)
	if _, err := i.store.Put(ctx, key, data, contentType); err != nil {
		return "", apperr.External("failed to upload image", err)
	}
	return i.URL(key), nil
}

// Open returns the stored bytes and content type for key.
func (i *Images) Open(ctx context.Context, key string) ([]byte, string, error) {
	data, info, err := i.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, "", apperr.NotFound("image not found")
		}
		return nil, "", apperr.External("failed to read image", err)
	}
	return data, info.ContentType, nil
}

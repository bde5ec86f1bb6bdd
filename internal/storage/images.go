// Package storage keeps product images in a gocloud blob bucket.
package storage

import (
	"context" // Context for bucket operations
	"io"      // Upload streams
	"mime"    // Content types
	"net/url" // Remote URL validation
	"path"    // File extensions
	"strings" // String manipulation

	"eshop/internal/domain" // Error kinds

	"github.com/google/uuid"      // Unique object keys
	"github.com/pkg/errors"       // Error wrapping
	"gocloud.dev/blob"            // Portable blob storage
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"        // Portable error codes
)

// UploadPrefix is the URL path under which stored images are served
const UploadPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// ImageStore validates and stores product images
type ImageStore struct {
	bucket   *blob.Bucket // Image bucket
	maxBytes int64        // Upload size limit
}

// OpenImageStore opens the bucket at bucketURL, e.g. file:///var/eshop/uploads or mem://
func OpenImageStore(ctx context.Context, bucketURL string, maxBytes int64) (*ImageStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}
	return NewImageStore(bucket, maxBytes), nil
}

func NewImageStore(bucket *blob.Bucket, maxBytes int64) *ImageStore {
	return &ImageStore{bucket: bucket, maxBytes: maxBytes}
}

// extension returns the lowercased extension of name if it is an allowed image type
func extension(name string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if !allowedExtensions[ext] {
		return "", errors.Wrapf(domain.ErrValidation, "image type %q is not allowed", ext)
	}
	return ext, nil
}

// SaveUpload stores an uploaded image under a fresh unique key and returns
// the URL path it is served from. The client file name only contributes its
// extension.
func (s *ImageStore) SaveUpload(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	ext, err := extension(filename)
	if err != nil {
		return "", err
	}
	if size > s.maxBytes {
		return "", errors.Wrapf(domain.ErrValidation, "image exceeds %d bytes", s.maxBytes)
	}
	key := uuid.NewString() + "." + ext // Client name is never used as the key

	// Cancelling the writer's context discards a partial upload
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := s.bucket.NewWriter(wctx, key, &blob.WriterOptions{ContentType: mime.TypeByExtension("." + ext)})
	if err != nil {
		return "", errors.Wrap(err, "open image writer")
	}
	n, err := io.Copy(w, io.LimitReader(r, s.maxBytes+1)) // One extra byte detects oversize bodies
	if err == nil && n > s.maxBytes {
		err = errors.Wrapf(domain.ErrValidation, "image exceeds %d bytes", s.maxBytes)
	}
	if err != nil {
		cancel()      // Abort the write
		_ = w.Close() // Releases the writer
		return "", errors.Wrap(err, "write image")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "store image")
	}
	return UploadPrefix + key, nil
}

// FromURL validates a remote image reference. The image is not fetched; the
// URL is stored as given.
func (s *ImageStore) FromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.Wrap(domain.ErrValidation, "image URL must be an absolute http(s) URL")
	}
	if _, err := extension(u.Path); err != nil {
		return "", err
	}
	return raw, nil // Stored as given
}

// Open returns a reader for a stored image. Callers close it.
func (s *ImageStore) Open(ctx context.Context, key string) (*blob.Reader, error) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "..") {
		return nil, errors.Wrap(domain.ErrNotFound, "image not found")
	}
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrap(domain.ErrNotFound, "image not found")
		}
		return nil, errors.Wrap(err, "open image")
	}
	return r, nil
}

// Delete removes a stored image referenced by its /uploads/ URL. Remote URLs
// and missing images are ignored.
func (s *ImageStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, UploadPrefix) {
		return nil // Remote or empty reference
	}
	err := s.bucket.Delete(ctx, strings.TrimPrefix(ref, UploadPrefix))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrap(err, "delete image")
	}
	return nil
}

func (s *ImageStore) Close() error {
	return s.bucket.Close()
}

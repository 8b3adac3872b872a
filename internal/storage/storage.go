// Package storage validates uploaded listing images and persists them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrImageRequired = errors.New("an image is required")
	ErrImageTooLarge = errors.New("image is too large")
	ErrImageType     = errors.New("image must be a JPEG, PNG or WebP file")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store persists image bytes under a key and exposes them at a public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Upload is a validated image ready to be stored.
type Upload struct {
	Key         string
	ContentType string
	Size        int64
	header      *multipart.FileHeader
}

func (u *Upload) Open() (multipart.File, error) {
	return u.header.Open()
}

// Inspect checks size and sniffed content type of an uploaded file. The
// declared Content-Type header is ignored.
func Inspect(fh *multipart.FileHeader, maxBytes int64) (*Upload, error) {
	if fh == nil {
		return nil, ErrImageRequired
	}
	if fh.Size <= 0 {
		return nil, ErrImageRequired
	}
	if fh.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", ErrImageTooLarge, fh.Size, maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrImageType
	}

	return &Upload{
		Key:         path.Join("listings", uuid.NewString()+ext),
		ContentType: contentType,
		Size:        fh.Size,
		header:      fh,
	}, nil
}

// Save writes the upload to s.
func Save(ctx context.Context, s Store, u *Upload) error {
	f, err := u.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.Put(ctx, u.Key, u.ContentType, f, u.Size)
}

func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return clean, nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// MaxImageSize is the largest product image accepted (5 MiB).
const MaxImageSize = 5 << 20

var (
	ErrUnsupportedType = errors.New("only JPEG, PNG, WebP and GIF images are allowed")
	ErrTooLarge        = errors.New("image exceeds the 5 MiB limit")
)

// allowedTypes maps accepted image types to the extension stored on disk.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists an uploaded product image and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}

// image is an upload that passed the size and type checks.
type image struct {
	data        []byte
	contentType string
	filename    string
}

// readImage reads at most MaxImageSize bytes from r and sniffs the content
// type from the data itself; the client's declared type is not trusted.
func readImage(r io.Reader) (*image, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if n > MaxImageSize {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(buf.Bytes())
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	// Safe unique filename (uuid + extension).
	return &image{
		data:        buf.Bytes(),
		contentType: contentType,
		filename:    uuid.NewString() + ext,
	}, nil
}

package donation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sharehub/backend/internal/domain/shared"
)

// DefaultMaxFileSize bounds a single uploaded image (5 MiB).
const DefaultMaxFileSize int64 = 5 << 20

// AllowedImageExtensions is the extension whitelist for donation images.
var AllowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// AllowedImageContentTypes is the declared content type whitelist for donation images.
// Both the extension and the content type must match.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ImageStore persists uploaded image bytes.
// Implemented by the infrastructure layer (local filesystem, S3).
type ImageStore interface {
	// Store writes the image under name and returns the relative reference to keep on the record
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)

	// Resolve turns a stored reference into a URL a mail client or browser can fetch
	Resolve(ctx context.Context, ref string) (string, error)

	// Delete removes the image behind ref. Missing images are not an error.
	Delete(ctx context.Context, ref string) error
}

// ImageUpload is a single file part received with a request.
type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadHandler validates donation images and saves them to an ImageStore.
type UploadHandler struct {
	store       ImageStore
	maxFileSize int64
	now         func() time.Time
}

// NewUploadHandler creates an UploadHandler. A non-positive maxFileSize falls back to DefaultMaxFileSize.
func NewUploadHandler(store ImageStore, maxFileSize int64) *UploadHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &UploadHandler{
		store:       store,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// MaxFileSize returns the configured per-file limit in bytes.
func (h *UploadHandler) MaxFileSize() int64 {
	return h.maxFileSize
}

// Validate checks the extension, declared content type and size of an upload.
func (h *UploadHandler) Validate(upload ImageUpload) error {
	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !AllowedImageExtensions[ext] || !isAllowedContentType(upload.ContentType) {
		return shared.NewValidationError("Only image files (jpeg, jpg, png, gif) are allowed")
	}
	if upload.Size > h.maxFileSize {
		return shared.NewValidationError(fmt.Sprintf("File too large: maximum size is %d bytes", h.maxFileSize))
	}
	return nil
}

// Save validates the upload and writes it to the store, returning the stored reference.
func (h *UploadHandler) Save(ctx context.Context, upload ImageUpload) (string, error) {
	if err := h.Validate(upload); err != nil {
		return "", err
	}
	if upload.Content == nil {
		return "", shared.NewValidationError("Uploaded file is empty")
	}

	// Read one byte past the limit so a lying Size header is still caught
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(upload.Content, h.maxFileSize+1))
	if err != nil {
		return "", shared.NewStorageError(fmt.Sprintf("failed to read uploaded file: %v", err))
	}
	if n > h.maxFileSize {
		return "", shared.NewValidationError(fmt.Sprintf("File too large: maximum size is %d bytes", h.maxFileSize))
	}

	mediaType, _, _ := mime.ParseMediaType(upload.ContentType)
	ref, err := h.store.Store(ctx, h.storageName(upload.FileName), mediaType, buf.Bytes())
	if err != nil {
		return "", shared.NewStorageError(fmt.Sprintf("failed to store uploaded file: %v", err))
	}
	return ref, nil
}

// Discard removes a previously saved image. Errors are returned for logging only.
func (h *UploadHandler) Discard(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return h.store.Delete(ctx, ref)
}

// URL resolves a stored reference to a fetchable URL.
func (h *UploadHandler) URL(ctx context.Context, ref string) (string, error) {
	return h.store.Resolve(ctx, ref)
}

// storageName builds <unix-millis>-<uuid><ext>, unique and ordered by upload time.
func (h *UploadHandler) storageName(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%d-%s%s", h.now().UnixMilli(), uuid.New().String(), ext)
}

func isAllowedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return AllowedImageContentTypes[strings.ToLower(mediaType)]
}
